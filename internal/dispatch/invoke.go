package dispatch

import (
	"context"
	"fmt"
	"os"
)

// BuiltinEntryPoint selects the in-process converter instead of an external
// script.
const BuiltinEntryPoint = "builtin"

// InvokeStep runs the conversion entry point exactly once, passing the
// name of the token variable and the input file path. The entry point's
// exit status becomes the dispatch's exit status; its output is not
// interpreted.
type InvokeStep struct{}

func (InvokeStep) Name() string { return "invoke" }

func (InvokeStep) Run(ctx context.Context, env *Env) error {
	if os.Getenv(env.PATEnvVar) == "" {
		return fmt.Errorf("%s environment variable not set", env.PATEnvVar)
	}

	if env.EntryPoint == BuiltinEntryPoint {
		if env.Builtin == nil {
			return fmt.Errorf("builtin entry point not wired")
		}
		return env.Builtin(ctx, env.PATEnvVar, env.InputFile)
	}

	err := runCmd(ctx, env, env.WorkDir, env.Python, env.EntryPoint,
		"--pat-env-var", env.PATEnvVar,
		"--input-file", env.InputFile)
	if err != nil {
		return fmt.Errorf("entry point %s: %w", env.EntryPoint, err)
	}
	return nil
}
