package dispatch

import (
	"testing"
	"time"
)

func TestBuildReport_Completed(t *testing.T) {
	env := &Env{RepoURL: "https://example/repo", EntryPoint: "builtin", PATEnvVar: "ADO_PAT"}
	steps := []StepResult{
		{Name: "checkout", State: StateCompleted},
		{Name: "invoke", State: StateCompleted},
	}

	r := BuildReport("abc", env, steps, 2*time.Second)
	if r.Status != "completed" || r.FailedStep != "" || r.ExitCode != 0 {
		t.Errorf("unexpected report: %+v", r)
	}
	if r.PATEnvVar != "ADO_PAT" {
		t.Errorf("expected env var name in report, got %q", r.PATEnvVar)
	}
}

func TestBuildReport_Failed(t *testing.T) {
	env := &Env{}
	steps := []StepResult{
		{Name: "checkout", State: StateCompleted},
		{Name: "deps", State: StateFailed, Error: "pip failed", ExitCode: 1},
		{Name: "invoke", State: StateSkipped},
	}

	r := BuildReport("abc", env, steps, time.Second)
	if r.Status != "failed" {
		t.Errorf("status: %s", r.Status)
	}
	if r.FailedStep != "deps" || r.ExitCode != 1 {
		t.Errorf("unexpected failure detail: %+v", r)
	}
}
