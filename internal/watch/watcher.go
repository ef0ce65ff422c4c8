package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/inputfilter/internal/output"
)

// RunFunc rebuilds every configured input filter.
type RunFunc func(ctx context.Context) (*RunResult, error)

// RunResult holds the output of a single rebuild.
type RunResult struct {
	// Renderings maps each input filter name to its rendered description.
	Renderings map[string]string

	// Descriptions maps each input filter name to its output.Describe
	// tree. When both rebuilds carry one, diffs are reported per input.
	Descriptions map[string]map[string]any

	// Inputs is the total number of inputs over all input filters.
	Inputs int
}

// Options configures the watch behaviour.
type Options struct {
	// Files are the spec files to watch.
	Files []string

	// Debounce is the quiet period before triggering a rebuild.
	Debounce time.Duration

	// Color enables ANSI colors in diffs.
	Color bool

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// DefaultOptions returns the default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: 500 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run starts the file watcher and blocks until the context is cancelled
// or a SIGINT/SIGTERM signal is received.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if len(opts.Files) == 0 {
		return fmt.Errorf("no spec files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	files, err := addFiles(watcher, opts.Files)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "watching %s (debounce=%s)\n", strings.Join(opts.Files, ", "), opts.Debounce)

	s := &session{opts: opts, runFn: runFn}
	s.run(sigCtx, "(initial)")

	debouncer := NewDebouncer(opts.Debounce, func(path string) {
		s.run(sigCtx, path)
	})
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "\nshutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event, files) {
				continue
			}

			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// session remembers the renderings of the last successful rebuild.
type session struct {
	opts  Options
	runFn RunFunc

	mu       sync.Mutex
	prev     map[string]string
	prevDesc map[string]map[string]any
	hasPrev  bool
}

// run executes a single rebuild and prints the status line followed by the
// changes since the previous successful rebuild.
func (s *session) run(ctx context.Context, trigger string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.opts.Out
	now := time.Now().Format("15:04:05")

	result, err := s.runFn(ctx)
	if err != nil {
		fmt.Fprintf(out, "[%s] %s → ERROR: %v\n", now, trigger, err)
		return
	}

	fmt.Fprintf(out, "[%s] %s → OK (%d input filters, %d inputs)\n",
		now, trigger, len(result.Renderings), result.Inputs)

	if s.hasPrev {
		changes := Diff(s.prev, result.Renderings)
		fmt.Fprintf(out, "  changes: %s\n", Summary(changes))

		for _, c := range changes {
			s.writeDiff(c, result)
		}
	}

	s.prev, s.prevDesc, s.hasPrev = result.Renderings, result.Descriptions, true
}

func (s *session) writeDiff(c Change, curr *RunResult) {
	opts := output.DefaultDiffOptions()
	opts.OldLabel = "previous/" + c.Service
	opts.NewLabel = "current/" + c.Service

	prevDesc, okPrev := s.prevDesc[c.Service]
	currDesc, okCurr := curr.Descriptions[c.Service]

	if c.Kind == ChangeChanged && okPrev && okCurr {
		diffs, err := output.DiffDescriptions(prevDesc, currDesc, opts)
		if err == nil {
			output.WriteEntryDiffs(s.opts.Out, diffs, s.opts.Color)
			return
		}

		s.opts.Logger.Debug("per-input diff failed, diffing whole rendering",
			slog.String("service", c.Service),
			slog.String("error", err.Error()),
		)
	}

	d, err := output.ComputeDiff(s.prev[c.Service], curr.Renderings[c.Service], opts)
	if err != nil {
		s.opts.Logger.Warn("computing diff failed",
			slog.String("service", c.Service),
			slog.String("error", err.Error()),
		)

		return
	}

	output.WriteDiff(s.opts.Out, d, s.opts.Color)
}

// addFiles watches the parent directory of every file, since editors often
// replace files by renaming, and returns the set of absolute file paths.
func addFiles(watcher *fsnotify.Watcher, paths []string) (map[string]bool, error) {
	files := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving spec file %q: %w", p, err)
		}

		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("watching spec file %q: %w", p, err)
		}

		files[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}

		if err := watcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %q: %w", dir, err)
		}

		dirs[dir] = true
	}

	return files, nil
}

// isRelevant keeps write, create, remove and rename events on watched files.
func isRelevant(event fsnotify.Event, files map[string]bool) bool {
	if event.Op == 0 {
		return false
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}

	return files[abs]
}
