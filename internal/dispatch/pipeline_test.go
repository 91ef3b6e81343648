package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
)

// stubStep is a scriptable step for pipeline tests.
type stubStep struct {
	name string
	err  error
	runs *int
}

func (s stubStep) Name() string { return s.name }

func (s stubStep) Run(ctx context.Context, env *Env) error {
	if s.runs != nil {
		*s.runs++
	}
	return s.err
}

func testEnv() *Env {
	return &Env{Stdout: io.Discard, Stderr: io.Discard}
}

func TestPipeline_HappyPath(t *testing.T) {
	var a, b, c int
	p := NewPipeline([]Step{
		stubStep{name: "checkout", runs: &a},
		stubStep{name: "deps", runs: &b},
		stubStep{name: "invoke", runs: &c},
	}, nil)

	results, err := p.Run(context.Background(), testEnv())
	if err != nil {
		t.Fatal(err)
	}
	if a != 1 || b != 1 || c != 1 {
		t.Errorf("expected each step to run once, got %d %d %d", a, b, c)
	}
	for _, r := range results {
		if r.State != StateCompleted {
			t.Errorf("step %s: expected COMPLETED, got %s", r.Name, r.State)
		}
	}
}

func TestPipeline_HaltsOnFirstFailure(t *testing.T) {
	var after int
	p := NewPipeline([]Step{
		stubStep{name: "checkout"},
		stubStep{name: "deps", err: fmt.Errorf("unresolvable dependency")},
		stubStep{name: "invoke", runs: &after},
	}, nil)

	results, err := p.Run(context.Background(), testEnv())
	if err == nil {
		t.Fatal("expected error")
	}
	if after != 0 {
		t.Error("step after the failure must not execute")
	}

	if results[0].State != StateCompleted {
		t.Errorf("checkout: %s", results[0].State)
	}
	if results[1].State != StateFailed {
		t.Errorf("deps: %s", results[1].State)
	}
	if results[2].State != StateSkipped {
		t.Errorf("invoke: %s", results[2].State)
	}
}

func TestPipeline_StepError(t *testing.T) {
	p := NewPipeline([]Step{
		stubStep{name: "deps", err: fmt.Errorf("pip exploded")},
	}, nil)

	_, err := p.Run(context.Background(), testEnv())
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected *StepError, got %T", err)
	}
	if stepErr.Step != "deps" {
		t.Errorf("expected failing step deps, got %s", stepErr.Step)
	}
	if stepErr.ExitCode != 1 {
		t.Errorf("expected exit code 1, got %d", stepErr.ExitCode)
	}
}

func TestPipeline_Redispatch(t *testing.T) {
	// first dispatch fails at deps; after the cause is fixed, a fresh
	// dispatch proceeds past it
	var invoked int
	failing := NewPipeline([]Step{
		stubStep{name: "deps", err: fmt.Errorf("bad manifest")},
		stubStep{name: "invoke", runs: &invoked},
	}, nil)
	if _, err := failing.Run(context.Background(), testEnv()); err == nil {
		t.Fatal("expected first dispatch to fail")
	}
	if invoked != 0 {
		t.Fatal("invoke must not run on the failed dispatch")
	}

	fixed := NewPipeline([]Step{
		stubStep{name: "deps"},
		stubStep{name: "invoke", runs: &invoked},
	}, nil)
	if _, err := fixed.Run(context.Background(), testEnv()); err != nil {
		t.Fatalf("re-dispatch failed: %v", err)
	}
	if invoked != 1 {
		t.Errorf("expected invoke to run once on re-dispatch, got %d", invoked)
	}
}

func TestPipeline_OnUpdate(t *testing.T) {
	var seen []string
	p := NewPipeline([]Step{
		stubStep{name: "checkout"},
		stubStep{name: "runtime", err: fmt.Errorf("no interpreter")},
		stubStep{name: "deps"},
	}, func(r StepResult) {
		seen = append(seen, fmt.Sprintf("%s:%s", r.Name, r.State))
	})

	_, _ = p.Run(context.Background(), testEnv())

	want := []string{
		"checkout:RUNNING", "checkout:COMPLETED",
		"runtime:RUNNING", "runtime:FAILED",
		"deps:SKIPPED",
	}
	if len(seen) != len(want) {
		t.Fatalf("expected %d updates, got %d: %v", len(want), len(seen), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("update %d: got %s, want %s", i, seen[i], want[i])
		}
	}
}
