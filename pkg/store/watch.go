package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event is one coalesced burst of file changes.
type Event struct {
	Paths []string
}

// Watcher reports changes below the paths it was given. Add and Remove are
// reference counted so independent owners can watch the same directory.
type Watcher interface {
	Add(path string) error
	Remove(path string) error
	Events() <-chan Event
	Close() error
}

// NewWatcher starts an fsnotify-backed watcher that emits at most one Event
// per delay window.
func NewWatcher(delay time.Duration, log *zap.Logger) (Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	w := &fsWatcher{
		fw:       fw,
		log:      log,
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
		refs:     make(map[string]int),
		throttle: newEventThrottle(delay),
	}
	go w.loop()
	return w, nil
}

type fsWatcher struct {
	fw       *fsnotify.Watcher
	log      *zap.Logger
	events   chan Event
	done     chan struct{}
	throttle *eventThrottle

	mu        sync.Mutex
	refs      map[string]int
	closeOnce sync.Once
}

func (w *fsWatcher) Add(path string) error {
	path = filepath.Clean(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.refs[path] > 0 {
		w.refs[path]++
		return nil
	}
	if err := w.fw.Add(path); err != nil {
		return fmt.Errorf("store: watch %s: %w", path, err)
	}
	w.refs[path] = 1
	return nil
}

func (w *fsWatcher) Remove(path string) error {
	path = filepath.Clean(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.refs[path] {
	case 0:
		return nil
	case 1:
		delete(w.refs, path)
		if err := w.fw.Remove(path); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
			return fmt.Errorf("store: unwatch %s: %w", path, err)
		}
	default:
		w.refs[path]--
	}
	return nil
}

func (w *fsWatcher) Events() <-chan Event {
	return w.events
}

func (w *fsWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.throttle.Stop()
		err = w.fw.Close()
	})
	return err
}

func (w *fsWatcher) send(ev Event) {
	select {
	case <-w.done:
	case w.events <- ev:
	default:
		// Drop the burst if nobody is reading; the next one carries a
		// rebuild anyway.
		w.log.Debug("store: dropped change event", zap.Int("paths", len(ev.Paths)))
	}
}

func (w *fsWatcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("store: watcher error", zap.Error(err))
		case evt, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if evt.Op == fsnotify.Chmod {
				continue
			}
			w.throttle.Enqueue(filepath.Clean(evt.Name), w.send)
		}
	}
}

// eventThrottle coalesces rapid change notifications so consumers rebuild
// once per burst of filesystem activity instead of on every single write.
type eventThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}
	delay   time.Duration
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{
		delay:   delay,
		pending: make(map[string]struct{}),
	}
}

func (t *eventThrottle) Enqueue(path string, send func(Event)) {
	t.mu.Lock()
	t.pending[path] = struct{}{}
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
	t.mu.Unlock()
}

func (t *eventThrottle) flush(send func(Event)) {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[string]struct{})
	t.timer = nil
	t.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	send(Event{Paths: paths})
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
