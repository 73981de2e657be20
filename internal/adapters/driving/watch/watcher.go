// Package watch keeps a directory in sync with the index: new and
// modified files are re-ingested, removed files are deleted.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/atrium-labs/ragcore/internal/core/domain"
	"github.com/atrium-labs/ragcore/internal/core/ports/driving"
	"github.com/atrium-labs/ragcore/internal/core/services"
	"github.com/atrium-labs/ragcore/internal/extractors"
	"github.com/atrium-labs/ragcore/internal/logger"
)

// debounceDelay is how long a path must stay quiet before it is
// ingested. Editors fire several write events per save.
const debounceDelay = 250 * time.Millisecond

// Watcher mirrors filesystem changes into the ingest service.
type Watcher struct {
	dir      string
	source   string
	ingest   driving.IngestService
	registry *extractors.Registry
	debounce time.Duration
}

// New creates a watcher for dir. The source labels every ingested
// document.
func New(dir, source string, ingest driving.IngestService) *Watcher {
	return &Watcher{
		dir:      dir,
		source:   source,
		ingest:   ingest,
		registry: extractors.Defaults(),
		debounce: debounceDelay,
	}
}

// Run watches until the context is cancelled. Ingestion failures are
// logged, not fatal; the watch keeps going.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("Watching %s", w.dir)

	// Pending paths wait out the debounce window before ingestion.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event, pending)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)

		case now := <-ticker.C:
			for path, since := range pending {
				if now.Sub(since) >= w.debounce {
					delete(pending, path)
					w.ingestFile(ctx, path)
				}
			}
		}
	}
}

// handleEvent queues writes and creates, and deletes on remove/rename.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event, pending map[string]time.Time) {
	if !w.supported(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		pending[event.Name] = time.Now()

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		delete(pending, event.Name)
		id := services.DocumentID(w.source, filepath.Base(event.Name))
		removed, err := w.ingest.Delete(ctx, id)
		if err != nil {
			logger.Warn("Failed to delete %s: %v", event.Name, err)
			return
		}
		logger.Info("Removed %s (%d fragments)", filepath.Base(event.Name), removed)
	}
}

// ingestFile reads and ingests one file.
func (w *Watcher) ingestFile(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Failed to read %s: %v", path, err)
		return
	}

	result, err := w.ingest.Ingest(ctx, domain.IngestRequest{
		Content:  content,
		Filename: filepath.Base(path),
		Source:   w.source,
	})
	if err != nil {
		logger.Warn("Failed to ingest %s: %v", path, err)
		return
	}
	logger.Info("Indexed %s: %d fragments", result.Filename, result.FragmentCount)
}

// supported reports whether an extractor exists for the path.
func (w *Watcher) supported(path string) bool {
	_, err := w.registry.ForFilename(filepath.Base(path))
	return err == nil
}
