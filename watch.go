package devblog

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cherbst/devblog/content"
)

// watchDebounce coalesces the bursts of events an editor save produces.
const watchDebounce = 250 * time.Millisecond

// WatchContent resyncs the store whenever a markdown file or image under
// the content directory changes. It blocks until ctx is cancelled. A failed
// resync is logged and the previous content stays live.
func (a *App) WatchContent(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	logger := a.Logger.With("component", "watch")
	if err := os.MkdirAll(a.Runtime.ContentDir, 0o755); err != nil {
		return err
	}
	if err := watchRecursive(watcher, a.Runtime.ContentDir); err != nil {
		return err
	}
	logger.Info("watching content", "dir", a.Runtime.ContentDir)

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchRecursive(watcher, event.Name)
				}
			}
			if !relevant(event.Name) || event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			logger.Debug("content changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(watchDebounce)

		case <-timer.C:
			if _, err := a.Resync(ctx); err != nil {
				logger.Error("resync failed, keeping previous content", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

func relevant(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	return content.IsMarkdown(path) || isImage(path)
}

func watchRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
