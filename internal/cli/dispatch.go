package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Vijaysplendor/migaccel/internal/config"
	"github.com/Vijaysplendor/migaccel/internal/dispatch"
	"github.com/Vijaysplendor/migaccel/internal/reporter"
	"github.com/Vijaysplendor/migaccel/internal/state"
)

func newDispatchCmd() *cobra.Command {
	var (
		repoURL        string
		workDir        string
		python         string
		runtimeVersion string
		manifest       string
		entryPoint     string
		inputFile      string
		patEnvVar      string
		maxRuntime     time.Duration
		tuiMode        string
	)

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Run the migration sequence: checkout, runtime, deps, invoke",
		Long:  "Dispatch executes the four steps in strict order. The first failing step aborts the run; nothing is retried. Re-dispatch manually after fixing the cause.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("repo-url") && cfg.RepoURL != "" {
				repoURL = cfg.RepoURL
			}
			if !cmd.Flags().Changed("work-dir") && cfg.WorkDir != "" {
				workDir = cfg.WorkDir
			}
			if !cmd.Flags().Changed("python") && cfg.Python != "" {
				python = cfg.Python
			}
			if !cmd.Flags().Changed("runtime-version") && cfg.RuntimeVersion != "" {
				runtimeVersion = cfg.RuntimeVersion
			}
			if !cmd.Flags().Changed("manifest") && cfg.Manifest != "" {
				manifest = cfg.Manifest
			}
			if !cmd.Flags().Changed("entry-point") && cfg.EntryPoint != "" {
				entryPoint = cfg.EntryPoint
			}
			if !cmd.Flags().Changed("input-file") && cfg.InputFile != "" {
				inputFile = cfg.InputFile
			}
			if !cmd.Flags().Changed("pat-env-var") && cfg.PATEnvVar != "" {
				patEnvVar = cfg.PATEnvVar
			}
			if !cmd.Flags().Changed("max-runtime") && cfg.MaxRuntime > 0 {
				maxRuntime = cfg.MaxRuntime
			}

			workDir, err = filepath.Abs(workDir)
			if err != nil {
				return fmt.Errorf("resolve work dir: %w", err)
			}

			return runDispatch(dispatchConfig{
				repoURL:        repoURL,
				workDir:        workDir,
				python:         python,
				runtimeVersion: runtimeVersion,
				manifest:       manifest,
				entryPoint:     entryPoint,
				inputFile:      inputFile,
				patEnvVar:      patEnvVar,
				maxRuntime:     maxRuntime,
				tuiMode:        tuiMode,
				postRun:        cfg.PostRun,
			})
		},
	}

	cmd.Flags().StringVar(&repoURL, "repo-url", "", "repository to snapshot before invoking the entry point")
	cmd.Flags().StringVar(&workDir, "work-dir", "work", "checkout target directory")
	cmd.Flags().StringVar(&python, "python", config.DefaultPython, "interpreter used for deps and the entry point")
	cmd.Flags().StringVar(&runtimeVersion, "runtime-version", "", "required interpreter version prefix, e.g. 3.11")
	cmd.Flags().StringVar(&manifest, "manifest", config.DefaultManifest, "dependency manifest relative to the work dir")
	cmd.Flags().StringVar(&entryPoint, "entry-point", config.DefaultEntryPoint, "conversion entry point script, or 'builtin'")
	cmd.Flags().StringVar(&inputFile, "input-file", config.DefaultInputFile, "file listing pipeline URLs to convert")
	cmd.Flags().StringVar(&patEnvVar, "pat-env-var", config.DefaultPATEnvVar, "name of the env var holding the access token")
	cmd.Flags().DurationVar(&maxRuntime, "max-runtime", 0, "abort the dispatch after this duration (0 = no timeout)")
	cmd.Flags().StringVar(&tuiMode, "tui", "auto", "display mode: full (live TUI), off, auto (detect TTY)")

	return cmd
}

// dispatchConfig holds the resolved parameters of one dispatch.
type dispatchConfig struct {
	repoURL        string
	workDir        string
	python         string
	runtimeVersion string
	manifest       string
	entryPoint     string
	inputFile      string
	patEnvVar      string
	maxRuntime     time.Duration
	tuiMode        string
	postRun        string
}

func runDispatch(cfg dispatchConfig) error {
	isTTY := isTerminal()
	textRep := reporter.NewTextReporter(os.Stdout, isTTY)

	dispatchID := uuid.NewString()[:8]

	stateDir := config.DefaultStateDir
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	// one dispatch at a time: concurrent manual dispatches would race on
	// the work directory
	if err := dispatch.Acquire(stateDir, dispatchID); err != nil {
		return err
	}
	defer dispatch.Release(stateDir)

	runDir := filepath.Join(stateDir, time.Now().Format("20060102-150405"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}

	store, err := state.Open(state.DefaultPath(stateDir))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Begin(dispatchID, runDir, time.Now()); err != nil {
		slog.Warn("history write failed", "error", err)
	}

	slog.Info("dispatch starting", "id", dispatchID, "repo", cfg.repoURL, "entry_point", cfg.entryPoint, "run_dir", runDir)
	textRep.PrintHeader(dispatchID, cfg.repoURL)

	// interrupt or timeout aborts the run through the context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.maxRuntime > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.maxRuntime)
		defer cancel()
	}

	// step output goes to run dir log files with the token value masked
	pat := os.Getenv(cfg.patEnvVar)
	outFile := newLogFile(runDir, "output.log")
	errFile := newLogFile(runDir, "stderr.log")
	stdout := dispatch.NewRedactor(outFile, pat)
	stderr := dispatch.NewRedactor(errFile, pat)
	defer func() {
		_ = stdout.Flush()
		_ = stderr.Flush()
		_ = outFile.Close()
		_ = errFile.Close()
	}()

	env := &dispatch.Env{
		RepoURL:        cfg.repoURL,
		WorkDir:        cfg.workDir,
		Python:         cfg.python,
		RuntimeVersion: cfg.runtimeVersion,
		Manifest:       cfg.manifest,
		EntryPoint:     cfg.entryPoint,
		InputFile:      cfg.inputFile,
		PATEnvVar:      cfg.patEnvVar,
		Environ:        dispatch.SanitizedEnv(cfg.patEnvVar),
		Stdout:         stdout,
		Stderr:         stderr,
		Builtin: func(ctx context.Context, patEnvVar, inputFile string) error {
			return runConversion(ctx, patEnvVar, inputFile, "", stdout)
		},
	}

	steps := []dispatch.Step{
		dispatch.CheckoutStep{},
		dispatch.RuntimeStep{},
		dispatch.DepsStep{},
		dispatch.InvokeStep{},
	}

	// snapshot of step state shared with the TUI poller
	var mu sync.Mutex
	snapshot := make([]dispatch.StepResult, len(steps))
	for i, s := range steps {
		snapshot[i] = dispatch.StepResult{Name: s.Name(), State: dispatch.StatePending}
	}
	getSteps := func() []dispatch.StepResult {
		mu.Lock()
		defer mu.Unlock()
		out := make([]dispatch.StepResult, len(snapshot))
		copy(out, snapshot)
		return out
	}

	pipeline := dispatch.NewPipeline(steps, func(r dispatch.StepResult) {
		mu.Lock()
		for i := range snapshot {
			if snapshot[i].Name == r.Name {
				snapshot[i] = r
			}
		}
		mu.Unlock()
		if err := store.RecordStep(dispatchID, r); err != nil {
			slog.Warn("history write failed", "step", r.Name, "error", err)
		}
	})

	// resolve display mode
	displayMode := cfg.tuiMode
	if displayMode == "" || displayMode == "auto" {
		if isTTY {
			displayMode = "full"
		} else {
			displayMode = "off"
		}
	}

	var tuiProgram *tea.Program
	if displayMode == "full" {
		tuiModel := reporter.NewTUIModel(dispatchID, cfg.repoURL, getSteps, cancel)
		tuiProgram = tea.NewProgram(tuiModel)
		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				slog.Warn("TUI error", "error", err)
			}
		}()
	}

	start := time.Now()
	results, runErr := pipeline.Run(ctx, env)
	total := time.Since(start).Truncate(time.Millisecond)

	if tuiProgram != nil {
		tuiProgram.Quit()
		tuiProgram.Wait()
	}

	report := dispatch.BuildReport(dispatchID, env, results, total)
	textRep.PrintSteps(results)
	textRep.PrintSummary(report)

	reportPath := filepath.Join(runDir, "report.json")
	if err := reporter.WriteJSONReport(report, reportPath); err != nil {
		slog.Warn("failed to write report", "error", err)
	} else {
		fmt.Fprintf(os.Stdout, "\nReport: %s\n", reportPath)
	}

	status := state.StatusCompleted
	if runErr != nil {
		status = state.StatusFailed
	}
	if err := store.Finish(dispatchID, status, report.FailedStep, report.ExitCode); err != nil {
		slog.Warn("history write failed", "error", err)
	}

	// run post_run hook if configured
	if cfg.postRun != "" {
		absRunDir, _ := filepath.Abs(runDir)
		hookCmd := exec.CommandContext(context.Background(), "sh", "-c", cfg.postRun)
		hookCmd.Env = append(dispatch.SanitizedEnv(""), "MIGACCEL_RUN_DIR="+absRunDir)
		hookCmd.Stdout = os.Stdout
		hookCmd.Stderr = os.Stderr
		fmt.Fprintf(os.Stdout, "\npost_run: %s\n", cfg.postRun)
		if err := hookCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "post_run hook FAILED: %v\n", err)
		}
	}

	return runErr
}

// newLogFile opens a log file in the run directory, falling back to discard.
func newLogFile(dir, name string) io.WriteCloser {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		slog.Warn("cannot create log file", "path", path, "error", err)
		return nopWriteCloser{io.Discard}
	}
	return f
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// ExitCodeFor maps an error to the process exit code: the entry point's own
// exit status is propagated, a held lock maps to 2, anything else to 1.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, dispatch.ErrLocked) {
		return 2
	}
	var stepErr *dispatch.StepError
	if errors.As(err, &stepErr) && stepErr.ExitCode > 0 {
		return stepErr.ExitCode
	}
	return 1
}
