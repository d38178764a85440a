// Package livesync keeps the People store current: it applies snapshot
// feeds of the remote collection and single-record events published by the
// rest of the application.
package livesync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdxmph/people-tui/internal/contact"
	"github.com/pdxmph/people-tui/internal/people"
)

// DefaultRestoreTimeout bounds how long a restore can hold back snapshots.
const DefaultRestoreTimeout = 3 * time.Second

// ScopeKind selects which part of the collection a feed covers.
type ScopeKind string

const (
	ScopeAll      ScopeKind = "all"
	ScopeOwned    ScopeKind = "owned"
	ScopeAssigned ScopeKind = "assigned"
)

// Scope is a feed filter. UserID is ignored for ScopeAll.
type Scope struct {
	Kind   ScopeKind
	UserID string
}

func (s Scope) String() string {
	if s.Kind == ScopeAll || s.Kind == "" {
		return string(ScopeAll)
	}
	return string(s.Kind) + ":" + s.UserID
}

// Subscriber opens a snapshot feed. fn receives the complete contents of the
// scope, first right after subscribing and then after every change. The
// returned func tears the feed down.
type Subscriber interface {
	Subscribe(ctx context.Context, scope Scope, fn func([]contact.Contact)) (func(), error)
}

// Target is the part of the store the reconciler writes to.
type Target interface {
	ReplaceLoaded(records []contact.Contact)
	MergeRecord(id string, patch contact.Patch) bool
	UpsertRecord(c contact.Contact)
	Refilter()
	RestoreViewState(v people.ViewState)
	GoToPage(ctx context.Context, n int) error
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithRestoreTimeout sets how long a restore may suppress snapshots before
// the flag clears itself.
func WithRestoreTimeout(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.restoreTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) {
		r.logger = l
	}
}

// WithOnApplied registers a callback run with the reconciled collection
// after each applied snapshot, e.g. to refresh a persistent cache.
func WithOnApplied(fn func([]contact.Contact)) Option {
	return func(r *Reconciler) {
		r.onApplied = fn
	}
}

type feed struct {
	scope    Scope
	primed   bool
	latest   []contact.Contact
	haveData bool
	unsub    func()
}

// Reconciler applies live updates to a Target.
type Reconciler struct {
	target         Target
	subscriber     Subscriber
	restoreTimeout time.Duration
	logger         *zap.Logger
	onApplied      func([]contact.Contact)

	mu         sync.Mutex
	feeds      []*feed
	gen        int
	restoring  bool
	restoreGen int
	restoreT   *time.Timer
	deferred   bool
	replay     []RecordEvent
}

// New creates a reconciler writing to target and subscribing through sub.
func New(target Target, sub Subscriber, opts ...Option) *Reconciler {
	r := &Reconciler{
		target:         target,
		subscriber:     sub,
		restoreTimeout: DefaultRestoreTimeout,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("livesync")
	return r
}

// Subscribe tears down every existing feed and opens one per scope. All
// feeds reconcile into the same target.
func (r *Reconciler) Subscribe(ctx context.Context, scopes ...Scope) error {
	r.Unsubscribe()

	r.mu.Lock()
	r.gen++
	gen := r.gen
	feeds := make([]*feed, len(scopes))
	for i, sc := range scopes {
		feeds[i] = &feed{scope: sc}
	}
	r.feeds = feeds
	r.mu.Unlock()

	for _, f := range feeds {
		f := f
		unsub, err := r.subscriber.Subscribe(ctx, f.scope, func(records []contact.Contact) {
			r.onSnapshot(gen, f, records)
		})
		if err != nil {
			r.Unsubscribe()
			return err
		}
		r.mu.Lock()
		stale := r.gen != gen
		if !stale {
			f.unsub = unsub
		}
		r.mu.Unlock()
		if stale {
			unsub()
		}
	}
	r.logger.Debug("subscribed", zap.Int("feeds", len(scopes)))
	return nil
}

// Unsubscribe tears down every feed. Deliveries still in flight from an old
// feed are ignored.
func (r *Reconciler) Unsubscribe() {
	r.mu.Lock()
	r.gen++
	feeds := r.feeds
	r.feeds = nil
	r.deferred = false
	r.replay = nil
	r.mu.Unlock()

	for _, f := range feeds {
		if f.unsub != nil {
			f.unsub()
		}
	}
}

// SoftCleanup stops the feeds and the restore timer but leaves the store's
// data alone, so returning to the view needs no refetch.
func (r *Reconciler) SoftCleanup() {
	r.Unsubscribe()
	r.mu.Lock()
	if r.restoreT != nil {
		r.restoreT.Stop()
		r.restoreT = nil
	}
	r.restoring = false
	r.mu.Unlock()
}

// FeedCount returns the number of live feeds.
func (r *Reconciler) FeedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.feeds)
}

func (r *Reconciler) onSnapshot(gen int, f *feed, records []contact.Contact) {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}
	if !f.primed {
		// The bulk load already covers the first delivery. Keep it so a later
		// delivery on a sibling feed can still be unioned with it.
		f.primed = true
		f.latest = records
		f.haveData = true
		r.mu.Unlock()
		r.logger.Debug("initial snapshot skipped", zap.Stringer("scope", f.scope), zap.Int("records", len(records)))
		return
	}
	f.latest = records
	f.haveData = true
	if r.restoring {
		r.deferred = true
		r.replay = nil
		r.mu.Unlock()
		r.logger.Debug("snapshot deferred during restore", zap.Stringer("scope", f.scope))
		return
	}
	merged := r.unionLocked()
	r.mu.Unlock()

	r.apply(merged, nil)
}

// unionLocked merges the latest snapshot of every feed, first feed first,
// deduplicated by ID.
func (r *Reconciler) unionLocked() []contact.Contact {
	var out []contact.Contact
	seen := make(map[string]struct{})
	for _, f := range r.feeds {
		if !f.haveData {
			continue
		}
		for _, c := range f.latest {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

func (r *Reconciler) apply(records []contact.Contact, replay []RecordEvent) {
	r.target.ReplaceLoaded(records)
	for _, ev := range replay {
		r.applyEvent(ev)
	}
	if len(replay) > 0 {
		r.target.Refilter()
	}
	r.logger.Debug("snapshot applied", zap.Int("records", len(records)), zap.Int("replayed", len(replay)))
	if r.onApplied != nil {
		r.onApplied(records)
	}
}
