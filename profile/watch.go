package profile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// Watcher reports changed profile files in the watched directories.
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	ticker := time.NewTicker(reloadDebounce / 2)
	defer ticker.Stop()
	// files are reported once they have been quiet for reloadDebounce, so a
	// truncate-then-write save is read after the write lands
	pending := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !isSpecFile(event.Name) {
				continue
			}
			pending[event.Name] = time.Now()
		case now := <-ticker.C:
			for name, t := range pending {
				if now.Sub(t) < reloadDebounce {
					continue
				}
				delete(pending, name)
				select {
				case w.Events <- name:
				case <-w.closeCh:
					return
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// Watch reloads profiles from dirs into the library until ctx is done.
// onReload, when set, is called with every profile that reloaded cleanly;
// callers hand it to the main loop rather than reconfiguring from the
// watcher goroutine.
func (l *Library) Watch(ctx context.Context, log *slog.Logger, onReload func(*Profile), dirs ...string) error {
	if log == nil {
		log = slog.Default()
	}
	w, err := NewWatcher(dirs...)
	if err != nil {
		return err
	}
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case path, ok := <-w.Events:
				if !ok {
					return
				}
				p, err := l.LoadFile(path)
				if err != nil {
					log.Warn("profile reload failed", "component", "profile", "path", path, "error", err)
					continue
				}
				log.Info("profile reloaded", "component", "profile", "name", p.Name, "version", p.Version, "path", path)
				if onReload != nil {
					onReload(p)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("profile watcher error", "component", "profile", "error", err)
			}
		}
	}()
	return nil
}
