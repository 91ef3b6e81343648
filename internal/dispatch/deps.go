package dispatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DepsStep installs the declared dependencies from the manifest. An
// unresolvable dependency or a network failure surfaces as pip's non-zero
// exit and aborts the dispatch before the entry point runs.
type DepsStep struct{}

func (DepsStep) Name() string { return "deps" }

func (DepsStep) Run(ctx context.Context, env *Env) error {
	manifest := env.Manifest
	if manifest == "" {
		manifest = "requirements.txt"
	}

	path := manifest
	if !filepath.IsAbs(path) {
		path = filepath.Join(env.WorkDir, manifest)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("manifest %s: %w", manifest, err)
	}

	if err := runCmd(ctx, env, env.WorkDir, env.Python, "-m", "pip", "install", "-r", manifest); err != nil {
		return fmt.Errorf("pip install -r %s: %w", manifest, err)
	}
	return nil
}
