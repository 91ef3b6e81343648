package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
)

// runCmd executes a command with the sanitized environment, wiring output
// through the redacted streams.
func runCmd(ctx context.Context, env *Env, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env.Environ
	cmd.Stdout = env.Stdout
	cmd.Stderr = env.Stderr
	setupProcessGroup(cmd)

	slog.Debug("spawning", "cmd", name, "args", args, "dir", dir)
	return cmd.Run()
}

// exitCodeOf extracts the process exit code from an error chain.
// Non-exec failures map to 1.
func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
