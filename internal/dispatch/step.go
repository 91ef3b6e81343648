// Package dispatch implements the trigger-and-invoke runner: a strictly
// linear sequence of steps (checkout, runtime, deps, invoke) where the first
// failing step aborts the run and the entry point's exit status is propagated.
package dispatch

import (
	"context"
	"fmt"
	"time"
)

// StepState represents the execution state of a step.
type StepState int

const (
	StatePending StepState = iota
	StateRunning
	StateCompleted
	StateFailed
	StateSkipped // an earlier step failed
)

func (s StepState) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateRunning:
		return "RUNNING"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	case StateSkipped:
		return "SKIPPED"
	default:
		return "UNKNOWN"
	}
}

// Step is one stage of the dispatch sequence.
type Step interface {
	Name() string
	Run(ctx context.Context, env *Env) error
}

// StepResult records the outcome of a single step.
type StepResult struct {
	Name      string        `json:"name"`
	State     StepState     `json:"state"`
	StartedAt time.Time     `json:"started_at,omitempty"`
	EndedAt   time.Time     `json:"ended_at,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	ExitCode  int           `json:"exit_code"`
	Error     string        `json:"error,omitempty"`
}

// StepError is returned when a step fails. It carries the failing step name
// and the exit code the process should propagate.
type StepError struct {
	Step     string
	ExitCode int
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
