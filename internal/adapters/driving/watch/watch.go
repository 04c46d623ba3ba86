// Package watch re-ingests documents when they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/extractors"
	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultDebounce is how long the watcher waits after the last change
// before re-ingesting.
const DefaultDebounce = 500 * time.Millisecond

// Options controls a Watcher.
type Options struct {
	// Debounce coalesces bursts of events. Zero uses DefaultDebounce.
	Debounce time.Duration

	// MaxFileBytes bounds each file read. Zero disables the check.
	MaxFileBytes int64

	// OnReload is called after every re-ingest attempt. Optional.
	OnReload func(*domain.IngestResult, error)
}

// Watcher re-ingests a fixed set of files into a document session
// whenever any of them is written, created or replaced.
type Watcher struct {
	docs  driving.DocumentService
	paths []string
	opts  Options
}

// New creates a watcher for paths.
func New(docs driving.DocumentService, paths []string, opts Options) (*Watcher, error) {
	if docs == nil {
		return nil, errors.New("document service is required")
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files to watch", domain.ErrEmptyInput)
	}
	abs := make([]string, len(paths))
	for i, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		abs[i] = filepath.Clean(a)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{docs: docs, paths: abs, opts: opts}, nil
}

// Run watches until ctx is cancelled. Directories are watched rather than
// the files themselves so editors that replace files are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	dirs := make(map[string]struct{})
	for _, p := range w.paths {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	logger.Debug("watching %d file(s) for changes", len(w.paths))

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			logger.Debug("change detected: %s", event)
			timer.Reset(w.opts.Debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	for _, p := range w.paths {
		if p == name {
			return true
		}
	}
	return false
}

// reload reads every watched file and rebuilds the session. A failure
// keeps the previous session active.
func (w *Watcher) reload(ctx context.Context) {
	uploads, err := extractors.ReadFiles(w.opts.MaxFileBytes, w.paths...)
	var res *domain.IngestResult
	if err == nil {
		res, err = w.docs.Ingest(ctx, uploads)
	}
	if err != nil {
		logger.Warn("re-ingest failed, keeping previous index: %v", err)
	} else {
		logger.Info("re-ingested %d document(s), %d chunks", len(res.Documents), res.ChunkCount)
	}
	if w.opts.OnReload != nil {
		w.opts.OnReload(res, err)
	}
}
