package config

import (
	"os"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// TokenWatcher holds the current CDN token, refreshed whenever CDNTokenFile
// changes on disk, so a credential rotation does not require a restart.
type TokenWatcher struct {
	path    string
	current atomic.Value // string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
}

// NewTokenWatcher reads path once and starts watching it for writes. If
// path is empty, it returns a watcher that always reports an empty token.
func NewTokenWatcher(path string, logger *zap.Logger) (*TokenWatcher, error) {
	tw := &TokenWatcher{path: path, logger: logger}
	tw.current.Store("")

	if path == "" {
		return tw, nil
	}
	if err := tw.reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}
	tw.watcher = watcher

	go tw.run()
	return tw, nil
}

// Token returns the most recently loaded token.
func (tw *TokenWatcher) Token() string {
	return tw.current.Load().(string)
}

// Close stops the filesystem watch.
func (tw *TokenWatcher) Close() error {
	if tw.watcher == nil {
		return nil
	}
	return tw.watcher.Close()
}

func (tw *TokenWatcher) reload() error {
	data, err := os.ReadFile(tw.path)
	if err != nil {
		return err
	}
	tw.current.Store(strings.TrimSpace(string(data)))
	return nil
}

func (tw *TokenWatcher) run() {
	for {
		select {
		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := tw.reload(); err != nil && tw.logger != nil {
				tw.logger.Warn("cdn token reload failed", zap.Error(err), zap.String("path", tw.path))
			}
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			if tw.logger != nil {
				tw.logger.Warn("cdn token watcher error", zap.Error(err))
			}
		}
	}
}
