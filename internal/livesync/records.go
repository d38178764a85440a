package livesync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pdxmph/people-tui/internal/contact"
	"github.com/pdxmph/people-tui/internal/people"
)

// EventType is the kind of a single-record event.
type EventType string

const (
	RecordCreated EventType = "created"
	RecordUpdated EventType = "updated"
)

// RecordEvent reports a change to one contact made elsewhere in the
// application. Payload uses the same loose keys contact.FromRecord reads.
type RecordEvent struct {
	Type    EventType
	ID      string
	Payload map[string]any
}

// Run applies record events from ch until ctx is done or ch closes.
func (r *Reconciler) Run(ctx context.Context, ch <-chan RecordEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			r.HandleEvent(ev)
		}
	}
}

// HandleEvent applies one record event. While a restore holds back a
// snapshot the event is also kept so it can be replayed on top of that
// snapshot once it is applied.
func (r *Reconciler) HandleEvent(ev RecordEvent) {
	if ev.ID == "" {
		return
	}
	r.mu.Lock()
	if r.deferred {
		r.replay = append(r.replay, ev)
	}
	r.mu.Unlock()

	if r.applyEvent(ev) {
		r.target.Refilter()
	}
}

func (r *Reconciler) applyEvent(ev RecordEvent) bool {
	switch ev.Type {
	case RecordCreated:
		r.target.UpsertRecord(contact.FromRecord(ev.ID, ev.Payload))
		return true
	case RecordUpdated:
		if !r.target.MergeRecord(ev.ID, contact.NormalizePatch(ev.Payload)) {
			r.logger.Debug("update for unknown contact ignored", zap.String("id", ev.ID))
			return false
		}
		return true
	}
	r.logger.Warn("unknown record event", zap.String("type", string(ev.Type)), zap.String("id", ev.ID))
	return false
}

// BeginRestore holds back snapshot deliveries until EndRestore, or until
// the restore timeout passes.
func (r *Reconciler) BeginRestore() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restoring = true
	r.restoreGen++
	gen := r.restoreGen
	if r.restoreT != nil {
		r.restoreT.Stop()
	}
	r.restoreT = time.AfterFunc(r.restoreTimeout, func() {
		r.restoreExpired(gen)
	})
}

// EndRestore clears the restore flag and applies the latest snapshot that
// arrived while it was set.
func (r *Reconciler) EndRestore() {
	r.mu.Lock()
	r.endRestoreLocked()
}

// restoreExpired ends restore number gen. A timer that already fired when
// a newer BeginRestore stopped it finds the generation moved on and does
// nothing.
func (r *Reconciler) restoreExpired(gen int) {
	r.mu.Lock()
	if gen != r.restoreGen || !r.restoring {
		r.mu.Unlock()
		return
	}
	r.logger.Warn("restore flag cleared by timeout", zap.Duration("timeout", r.restoreTimeout))
	r.endRestoreLocked()
}

// endRestoreLocked must be called with r.mu held; it releases it.
func (r *Reconciler) endRestoreLocked() {
	if !r.restoring {
		r.mu.Unlock()
		return
	}
	r.restoring = false
	if r.restoreT != nil {
		r.restoreT.Stop()
		r.restoreT = nil
	}
	pending := r.deferred
	replay := r.replay
	r.deferred = false
	r.replay = nil
	var merged []contact.Contact
	if pending {
		merged = r.unionLocked()
	}
	r.mu.Unlock()

	if pending {
		r.apply(merged, replay)
	}
}

// Restoring reports whether the restore flag is set.
func (r *Reconciler) Restoring() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.restoring
}

// RestoreView reinstates a saved view with snapshots held back, then moves
// to the saved page, loading more records if the page needs them.
func (r *Reconciler) RestoreView(ctx context.Context, v people.ViewState) error {
	r.BeginRestore()
	defer r.EndRestore()
	r.target.RestoreViewState(v)
	return r.target.GoToPage(ctx, v.Page)
}
