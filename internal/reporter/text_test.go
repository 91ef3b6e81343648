package reporter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Vijaysplendor/migaccel/internal/dispatch"
)

func TestPrintSteps_NoColor(t *testing.T) {
	var buf bytes.Buffer
	rep := NewTextReporter(&buf, false)

	rep.PrintSteps([]dispatch.StepResult{
		{Name: "checkout", State: dispatch.StateCompleted, Duration: 2 * time.Second},
		{Name: "runtime", State: dispatch.StateFailed, Error: "python not found", ExitCode: 1},
		{Name: "deps", State: dispatch.StateSkipped},
		{Name: "invoke", State: dispatch.StateSkipped},
	})

	out := buf.String()
	if strings.Contains(out, "\033[") {
		t.Error("ANSI codes emitted with color disabled")
	}
	for _, want := range []string{"✓ checkout", "✗ runtime", "python not found", "skipped"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	rep := NewTextReporter(&buf, false)

	rep.PrintSummary(&dispatch.Report{Status: "completed", TotalDuration: 5 * time.Second})
	if !strings.Contains(buf.String(), "dispatch completed in 5s") {
		t.Errorf("unexpected completed summary: %q", buf.String())
	}

	buf.Reset()
	rep.PrintSummary(&dispatch.Report{Status: "failed", FailedStep: "deps", ExitCode: 1, TotalDuration: time.Second})
	out := buf.String()
	if !strings.Contains(out, "dispatch failed at step deps (exit 1)") {
		t.Errorf("unexpected failed summary: %q", out)
	}
	if !strings.Contains(out, "re-dispatch") {
		t.Errorf("failed summary should tell the operator to re-dispatch: %q", out)
	}
}

func TestPrintConversionSummary(t *testing.T) {
	var buf bytes.Buffer
	NewTextReporter(&buf, false).PrintConversionSummary(2, 1, 3)
	if !strings.Contains(buf.String(), "Summary: 2/3 pipelines processed successfully") {
		t.Errorf("unexpected conversion summary: %q", buf.String())
	}
}
