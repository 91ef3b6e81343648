package dispatch

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Env carries the resolved dispatch configuration and the IO streams steps
// write to. Environ must already be sanitized; Stdout/Stderr must already
// redact the token value.
type Env struct {
	RepoURL        string // repository to snapshot
	WorkDir        string // checkout target directory
	Python         string // interpreter binary, e.g. "python3"
	RuntimeVersion string // required version prefix, e.g. "3.11"
	Manifest       string // dependency manifest relative to WorkDir
	EntryPoint     string // script path relative to WorkDir, or "builtin"
	InputFile      string // path passed via --input-file
	PATEnvVar      string // env var name passed via --pat-env-var

	Environ []string  // sanitized subprocess environment
	Stdout  io.Writer // redacted stdout stream
	Stderr  io.Writer // redacted stderr stream

	// Builtin runs the in-process converter when EntryPoint is "builtin".
	// Injected by the caller to keep this package free of API concerns.
	Builtin func(ctx context.Context, patEnvVar, inputFile string) error
}

// Pipeline executes steps in declared order, halting at the first failure.
type Pipeline struct {
	steps    []Step
	onUpdate func(StepResult)
}

// NewPipeline creates a pipeline over the given steps. onUpdate, if non-nil,
// is called after every state change.
func NewPipeline(steps []Step, onUpdate func(StepResult)) *Pipeline {
	return &Pipeline{steps: steps, onUpdate: onUpdate}
}

// Run executes the sequence. On the first failing step the remaining steps
// are recorded as skipped and a *StepError is returned. There is no retry;
// a failed dispatch is re-run manually after the cause is fixed.
func (p *Pipeline) Run(ctx context.Context, env *Env) ([]StepResult, error) {
	results := make([]StepResult, len(p.steps))
	for i, s := range p.steps {
		results[i] = StepResult{Name: s.Name(), State: StatePending}
	}

	for i, s := range p.steps {
		results[i].State = StateRunning
		results[i].StartedAt = time.Now()
		p.notify(results[i])

		slog.Info("step started", "step", s.Name())
		err := s.Run(ctx, env)

		results[i].EndedAt = time.Now()
		results[i].Duration = results[i].EndedAt.Sub(results[i].StartedAt).Truncate(time.Millisecond)

		if err != nil {
			results[i].State = StateFailed
			results[i].Error = err.Error()
			results[i].ExitCode = exitCodeOf(err)
			p.notify(results[i])
			slog.Error("step failed", "step", s.Name(), "duration", results[i].Duration, "error", err)

			for j := i + 1; j < len(p.steps); j++ {
				results[j].State = StateSkipped
				p.notify(results[j])
			}
			return results, &StepError{Step: s.Name(), ExitCode: results[i].ExitCode, Err: err}
		}

		results[i].State = StateCompleted
		p.notify(results[i])
		slog.Info("step completed", "step", s.Name(), "duration", results[i].Duration)
	}

	return results, nil
}

func (p *Pipeline) notify(r StepResult) {
	if p.onUpdate != nil {
		p.onUpdate(r)
	}
}
