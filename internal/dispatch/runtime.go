package dispatch

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RuntimeStep verifies that the configured interpreter exists and that its
// reported version satisfies the declared constraint.
type RuntimeStep struct{}

func (RuntimeStep) Name() string { return "runtime" }

func (RuntimeStep) Run(ctx context.Context, env *Env) error {
	if env.Python == "" {
		return fmt.Errorf("no interpreter configured")
	}

	cmd := exec.CommandContext(ctx, env.Python, "--version")
	cmd.Env = env.Environ
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("probe %s: %w", env.Python, err)
	}

	version := parseVersion(string(out))
	if version == "" {
		return fmt.Errorf("unrecognized version output from %s: %q", env.Python, strings.TrimSpace(string(out)))
	}
	fmt.Fprintf(env.Stdout, "runtime: %s %s\n", env.Python, version)

	if env.RuntimeVersion != "" && !versionSatisfies(version, env.RuntimeVersion) {
		return fmt.Errorf("runtime version %s does not satisfy required %s", version, env.RuntimeVersion)
	}
	return nil
}

// parseVersion extracts the dotted version from output like "Python 3.11.4".
func parseVersion(out string) string {
	fields := strings.Fields(strings.TrimSpace(out))
	for _, f := range fields {
		if len(f) > 0 && f[0] >= '0' && f[0] <= '9' && strings.Contains(f, ".") {
			return f
		}
	}
	return ""
}

// versionSatisfies reports whether version matches the constraint as a
// dotted prefix: constraint "3.11" accepts "3.11.x" but not "3.1.x".
func versionSatisfies(version, constraint string) bool {
	if version == constraint {
		return true
	}
	return strings.HasPrefix(version, constraint+".")
}
