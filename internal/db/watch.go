package db

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pdxmph/people-tui/internal/contact"
	"github.com/pdxmph/people-tui/internal/livesync"
)

// watch is one snapshot subscription. It re-reads its scope after writes
// through this DB and after changes to the database file by other
// processes, coalescing bursts into one delivery.
type watch struct {
	scope   livesync.Scope
	fn      func([]contact.Contact)
	trigger chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

func (w *watch) stop() {
	w.once.Do(func() {
		w.cancel()
		<-w.done
	})
}

func (w *watch) poke() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Subscribe delivers the contacts in scope to fn right away and again after
// every change. The returned func stops the subscription.
func (db *DB) Subscribe(ctx context.Context, scope livesync.Scope, fn func([]contact.Contact)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	w := &watch{
		scope:   scope,
		fn:      fn,
		trigger: make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		// The directory, not the file: sqlite replaces journal files.
		if err = fsw.Add(filepath.Dir(db.path)); err != nil {
			fsw.Close()
			fsw = nil
		}
	}
	if err != nil {
		db.logger.Warn("file watching unavailable, only local writes will refresh", zap.Error(err))
	}

	db.mu.Lock()
	id := db.nextID
	db.nextID++
	db.watches[id] = w
	db.mu.Unlock()

	go db.runWatch(ctx, w, fsw)

	return func() {
		db.mu.Lock()
		delete(db.watches, id)
		db.mu.Unlock()
		w.stop()
	}, nil
}

// notifyChange pokes every subscription after a local write.
func (db *DB) notifyChange() {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, w := range db.watches {
		w.poke()
	}
}

func (db *DB) runWatch(ctx context.Context, w *watch, fsw *fsnotify.Watcher) {
	defer close(w.done)

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if fsw != nil {
		defer fsw.Close()
		events, errs = fsw.Events, fsw.Errors
	}

	db.deliver(ctx, w)

	base := filepath.Base(db.path)
	timer := time.NewTimer(db.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			// Only our database and its journal files.
			if !strings.HasPrefix(filepath.Base(ev.Name), base) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				timer.Reset(db.debounce)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			db.logger.Warn("watch error", zap.Stringer("scope", w.scope), zap.Error(err))

		case <-w.trigger:
			timer.Reset(db.debounce)

		case <-timer.C:
			db.deliver(ctx, w)
		}
	}
}

func (db *DB) deliver(ctx context.Context, w *watch) {
	records, err := db.ListScope(ctx, w.scope)
	if err != nil {
		if ctx.Err() == nil {
			db.logger.Warn("snapshot query failed", zap.Stringer("scope", w.scope), zap.Error(err))
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	db.logger.Debug("snapshot delivered", zap.Stringer("scope", w.scope), zap.Int("records", len(records)))
	w.fn(records)
}
