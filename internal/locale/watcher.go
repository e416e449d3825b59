package locale

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a lexicon directory into a registry when its files change
type Watcher struct {
	dir      string
	registry *Registry
	logger   *slog.Logger
}

// NewWatcher creates a watcher for dir
func NewWatcher(dir string, registry *Registry, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{dir: dir, registry: registry, logger: logger}
}

// Start watches the directory until ctx is cancelled
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isLexiconFile(evt.Name) {
					continue
				}
				if evt.Op.Has(fsnotify.Write) || evt.Op.Has(fsnotify.Create) || evt.Op.Has(fsnotify.Rename) {
					w.reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("lexicon watcher error", "error", err)
			}
		}
	}()
	return nil
}

func (w *Watcher) reload() {
	loaded, err := w.registry.LoadDir(w.dir)
	if err != nil {
		w.logger.Warn("lexicon reload incomplete", "dir", w.dir, "error", err)
	}
	if len(loaded) > 0 {
		w.logger.Info("lexicons reloaded", "dir", w.dir, "locales", loaded)
	}
}

func isLexiconFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
