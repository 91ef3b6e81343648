package reporter

import (
	"fmt"
	"io"
	"os"

	"github.com/Vijaysplendor/migaccel/internal/dispatch"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

// TextReporter writes human-readable output to a writer.
type TextReporter struct {
	w     io.Writer
	color bool
}

// NewTextReporter creates a text reporter.
// If w is nil, defaults to os.Stdout.
// color enables ANSI codes.
func NewTextReporter(w io.Writer, color bool) *TextReporter {
	if w == nil {
		w = os.Stdout
	}
	return &TextReporter{w: w, color: color}
}

func (r *TextReporter) c(code string) string {
	if r.color {
		return code
	}
	return ""
}

// PrintHeader writes the initial banner.
func (r *TextReporter) PrintHeader(dispatchID, repoURL string) {
	fmt.Fprintf(r.w, "migaccel dispatch %s — %s\n\n", dispatchID, repoURL)
}

// PrintSteps writes a snapshot of all step states.
func (r *TextReporter) PrintSteps(steps []dispatch.StepResult) {
	for _, s := range steps {
		switch s.State {
		case dispatch.StateCompleted:
			fmt.Fprintf(r.w, "  %s✓%s %-10s %s\n", r.c(colorGreen), r.c(colorReset), s.Name, s.Duration)
		case dispatch.StateFailed:
			fmt.Fprintf(r.w, "  %s✗%s %-10s %s  %s\n", r.c(colorRed), r.c(colorReset), s.Name, s.Duration, s.Error)
		case dispatch.StateRunning:
			fmt.Fprintf(r.w, "  %s›%s %-10s\n", r.c(colorCyan), r.c(colorReset), s.Name)
		case dispatch.StateSkipped:
			fmt.Fprintf(r.w, "  %s-%s %-10s %sskipped%s\n", r.c(colorDim), r.c(colorReset), s.Name, r.c(colorDim), r.c(colorReset))
		default:
			fmt.Fprintf(r.w, "  %s.%s %-10s\n", r.c(colorDim), r.c(colorReset), s.Name)
		}
	}
}

// PrintSummary writes the terminal status line of the dispatch.
func (r *TextReporter) PrintSummary(report *dispatch.Report) {
	fmt.Fprintln(r.w)
	if report.Status == "completed" {
		fmt.Fprintf(r.w, "%sdispatch completed%s in %s\n", r.c(colorGreen), r.c(colorReset), report.TotalDuration)
		return
	}
	fmt.Fprintf(r.w, "%sdispatch failed%s at step %s (exit %d) after %s\n",
		r.c(colorRed), r.c(colorReset), report.FailedStep, report.ExitCode, report.TotalDuration)
	fmt.Fprintf(r.w, "%sfix the cause and re-dispatch; no step is retried automatically%s\n", r.c(colorDim), r.c(colorReset))
}

// PrintConversionSummary writes the per-pipeline outcome table of a convert run.
func (r *TextReporter) PrintConversionSummary(succeeded, failed int, total int) {
	color := colorGreen
	if failed > 0 {
		color = colorYellow
	}
	fmt.Fprintf(r.w, "\n%sSummary: %d/%d pipelines processed successfully%s\n",
		r.c(color), succeeded, total, r.c(colorReset))
}
