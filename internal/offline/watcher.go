// Why this file: ./internal/offline/watcher.go
// This watches the corpus file on disk and invalidates the engine when
// it changes, so an updated corpus takes effect on the next query
// without a restart.
package offline

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher invalidates the engine when its corpus file changes.
type Watcher struct {
	watcher *fsnotify.Watcher
	engine  *Engine
	logger  *zap.Logger
	done    chan struct{}
}

// WatchCorpus starts watching the engine's corpus file. The watch is on
// the parent directory because editors replace files instead of writing
// in place.
func WatchCorpus(engine *Engine, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := filepath.Dir(engine.corpusPath)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{watcher: fw, engine: engine, logger: logger, done: make(chan struct{})}
	go w.loop(filepath.Clean(engine.corpusPath))
	return w, nil
}

func (w *Watcher) loop(corpusPath string) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != corpusPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.logger.Info("offline corpus changed on disk",
					zap.String("path", event.Name), zap.String("op", event.Op.String()))
				w.engine.Invalidate()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("corpus watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
