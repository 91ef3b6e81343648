package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/Vijaysplendor/migaccel/internal/config"
)

// debounceDefault is the debounce interval for file events.
const debounceDefault = 200 * time.Millisecond

// pollDefault is the polling interval when fsnotify is unavailable.
const pollDefault = 5 * time.Second

func newWatchCmd() *cobra.Command {
	var (
		dropDir  string
		pollMode bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a drop directory and dispatch each new input file",
		Long:  "Watch monitors a directory for new .txt input files. Each dropped file triggers a dispatch using the configured settings, with the dropped file as --input-file. Processed files are renamed with a .done suffix.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			w := newWatcher(dropDir, cfg)
			if pollMode {
				return w.runPoll(ctx)
			}
			return w.runFSNotify(ctx)
		},
	}

	cmd.Flags().StringVar(&dropDir, "drop-dir", "inbox", "directory watched for new input files")
	cmd.Flags().BoolVar(&pollMode, "poll", false, "use polling instead of fsnotify")

	return cmd
}

type watcher struct {
	dropDir string
	cfg     *config.Settings

	// dispatch runs one input file. Dispatches hold a process-wide lock, so
	// the watcher must never run two at once.
	dispatch func(ctx context.Context, inputFile string) error
}

func newWatcher(dropDir string, cfg *config.Settings) *watcher {
	w := &watcher{dropDir: dropDir, cfg: cfg}
	w.dispatch = w.dispatchFile
	return w
}

// isInputFile matches files the watcher dispatches.
func isInputFile(name string) bool {
	return strings.HasSuffix(name, ".txt")
}

// runFSNotify watches the drop directory using fsnotify.
func (w *watcher) runFSNotify(ctx context.Context) error {
	if err := os.MkdirAll(w.dropDir, 0o755); err != nil {
		return fmt.Errorf("create drop dir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dropDir); err != nil {
		return fmt.Errorf("watch dir: %w", err)
	}

	// dispatch anything already waiting
	if err := w.scanExisting(ctx); err != nil {
		return err
	}

	slog.Info("watching for input files", "mode", "fsnotify", "dir", w.dropDir)

	// debounce timers only enqueue; a single worker runs dispatches one at a
	// time so a burst of dropped files never contends on the dispatch lock
	jobs := make(chan string, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case path := <-jobs:
				w.process(ctx, path)
			}
		}
	}()

	var mu sync.Mutex
	pending := make(map[string]*time.Timer)

	defer func() {
		mu.Lock()
		for _, t := range pending {
			t.Stop()
		}
		mu.Unlock()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !isInputFile(filepath.Base(event.Name)) {
				continue
			}

			path := event.Name
			mu.Lock()
			if t, exists := pending[path]; exists {
				t.Stop()
			}
			pending[path] = time.AfterFunc(debounceDefault, func() {
				mu.Lock()
				delete(pending, path)
				mu.Unlock()
				select {
				case jobs <- path:
				case <-ctx.Done():
				}
			})
			mu.Unlock()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

// runPoll scans the drop directory on an interval.
func (w *watcher) runPoll(ctx context.Context) error {
	if err := os.MkdirAll(w.dropDir, 0o755); err != nil {
		return fmt.Errorf("create drop dir: %w", err)
	}

	slog.Info("watching for input files", "mode", "poll", "dir", w.dropDir)

	ticker := time.NewTicker(pollDefault)
	defer ticker.Stop()

	for {
		if err := w.scanExisting(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			slog.Info("watch stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// scanExisting dispatches any input files already in the drop directory.
func (w *watcher) scanExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dropDir)
	if err != nil {
		return fmt.Errorf("read drop dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !isInputFile(e.Name()) {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		w.process(ctx, filepath.Join(w.dropDir, e.Name()))
	}
	return nil
}

// process dispatches one dropped input file and renames it afterwards so it
// is not picked up again.
func (w *watcher) process(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	slog.Info("dispatching dropped input file", "file", path)

	err := w.dispatch(ctx, path)

	suffix := ".done"
	if err != nil {
		suffix = ".failed"
		slog.Error("dispatch failed", "file", path, "error", err)
	}
	if renameErr := os.Rename(path, path+suffix); renameErr != nil {
		slog.Warn("cannot rename processed file", "file", path, "error", renameErr)
	}
}

// dispatchFile runs a full dispatch with the dropped file as the input file.
func (w *watcher) dispatchFile(ctx context.Context, path string) error {
	workDir, err := filepath.Abs(defaultString(w.cfg.WorkDir, "work"))
	if err != nil {
		return fmt.Errorf("resolve work dir: %w", err)
	}

	return runDispatch(dispatchConfig{
		repoURL:        w.cfg.RepoURL,
		workDir:        workDir,
		python:         defaultString(w.cfg.Python, config.DefaultPython),
		runtimeVersion: w.cfg.RuntimeVersion,
		manifest:       defaultString(w.cfg.Manifest, config.DefaultManifest),
		entryPoint:     defaultString(w.cfg.EntryPoint, config.DefaultEntryPoint),
		inputFile:      path,
		patEnvVar:      defaultString(w.cfg.PATEnvVar, config.DefaultPATEnvVar),
		maxRuntime:     w.cfg.MaxRuntime,
		tuiMode:        "off",
		postRun:        w.cfg.PostRun,
	})
}

func defaultString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
