package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a rule config file for edits and delivers a freshly
// parsed Registry whenever the file changes, the way texpand's
// migrateConfig/Reload pair lets a running daemon pick up edited
// match files without a restart. Parse errors on reload are delivered
// on Errors instead of tearing down the watch.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	Registry chan *Registry
	Errors   chan error
	done     chan struct{}
}

// NewWatcher starts watching path's directory (fsnotify follows
// editors that replace-via-rename rather than write-in-place only
// when the directory itself is watched).
func NewWatcher(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     path,
		fsw:      fsw,
		Registry: make(chan *Registry, 1),
		Errors:   make(chan error, 1),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	target := filepath.Clean(w.path)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			reg, err := Parse(w.path)
			if err != nil {
				select {
				case w.Errors <- err:
				default:
				}
				continue
			}
			select {
			case w.Registry <- reg:
			default:
				// Drop the stale pending reload; the newest wins.
				<-w.Registry
				w.Registry <- reg
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
