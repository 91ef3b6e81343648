package dispatch

import (
	"time"
)

// Report summarizes one dispatch for the JSON report and the text summary.
// The token value is never part of a report; only the variable name is.
type Report struct {
	DispatchID    string        `json:"dispatch_id"`
	Timestamp     time.Time     `json:"timestamp"`
	RepoURL       string        `json:"repo_url"`
	EntryPoint    string        `json:"entry_point"`
	InputFile     string        `json:"input_file"`
	PATEnvVar     string        `json:"pat_env_var"`
	Steps         []StepResult  `json:"steps"`
	Status        string        `json:"status"` // "completed" or "failed"
	FailedStep    string        `json:"failed_step,omitempty"`
	ExitCode      int           `json:"exit_code"`
	TotalDuration time.Duration `json:"total_duration"`
}

// BuildReport assembles a Report from the step results.
func BuildReport(dispatchID string, env *Env, steps []StepResult, total time.Duration) *Report {
	r := &Report{
		DispatchID:    dispatchID,
		Timestamp:     time.Now(),
		RepoURL:       env.RepoURL,
		EntryPoint:    env.EntryPoint,
		InputFile:     env.InputFile,
		PATEnvVar:     env.PATEnvVar,
		Steps:         steps,
		Status:        "completed",
		TotalDuration: total,
	}
	for _, s := range steps {
		if s.State == StateFailed {
			r.Status = "failed"
			r.FailedStep = s.Name
			r.ExitCode = s.ExitCode
			break
		}
	}
	return r
}
