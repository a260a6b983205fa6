package inference

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher warns when a loaded artifact changes on disk. Artifacts are never
// reloaded; a change means the process serves a stale model until restarted.
type Watcher struct {
	watcher   *fsnotify.Watcher
	artifacts map[string]Artifact
	logger    *zap.Logger
	notify    func(Artifact, fsnotify.Op)
}

// NewWatcher watches the directories holding artifacts so that editors and
// deploy tools that replace files by rename are seen as well.
func NewWatcher(artifacts []Artifact, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:   fw,
		artifacts: make(map[string]Artifact, len(artifacts)),
		logger:    logger,
	}
	dirs := make(map[string]bool)
	for _, a := range artifacts {
		abs, err := filepath.Abs(a.Path)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.artifacts[abs] = a
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// OnChange registers a hook called after the warning is logged.
func (w *Watcher) OnChange(fn func(Artifact, fsnotify.Op)) {
	w.notify = fn
}

// Run blocks until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("artifact watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	a, ok := w.artifacts[abs]
	if !ok {
		return
	}
	w.logger.Warn("artifact changed on disk; restart to serve it",
		zap.String("artifact", a.Name),
		zap.String("path", a.Path),
		zap.String("op", event.Op.String()),
		zap.String("loaded_sha256", a.SHA256),
	)
	if w.notify != nil {
		w.notify(a, event.Op)
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
