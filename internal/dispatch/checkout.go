package dispatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// CheckoutStep materializes a clean snapshot of the configured repository in
// the work directory: a shallow clone into an empty directory, or
// fetch + hard reset when a previous checkout exists.
type CheckoutStep struct{}

func (CheckoutStep) Name() string { return "checkout" }

func (CheckoutStep) Run(ctx context.Context, env *Env) error {
	if env.RepoURL == "" {
		return fmt.Errorf("no repository url configured")
	}

	gitDir := filepath.Join(env.WorkDir, ".git")
	if fi, err := os.Stat(gitDir); err == nil && fi.IsDir() {
		// existing checkout — refresh to the remote head
		if err := runCmd(ctx, env, env.WorkDir, "git", "fetch", "--depth", "1", "origin"); err != nil {
			return fmt.Errorf("git fetch: %w", err)
		}
		if err := runCmd(ctx, env, env.WorkDir, "git", "reset", "--hard", "FETCH_HEAD"); err != nil {
			return fmt.Errorf("git reset: %w", err)
		}
		if err := runCmd(ctx, env, env.WorkDir, "git", "clean", "-fd"); err != nil {
			return fmt.Errorf("git clean: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(env.WorkDir), 0o755); err != nil {
		return fmt.Errorf("create work dir parent: %w", err)
	}
	if err := runCmd(ctx, env, "", "git", "clone", "--depth", "1", env.RepoURL, env.WorkDir); err != nil {
		return fmt.Errorf("git clone: %w", err)
	}
	return nil
}
