package people

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pdxmph/people-tui/internal/contact"
	"github.com/pdxmph/people-tui/internal/events"
	"github.com/pdxmph/people-tui/internal/filter"
	"github.com/pdxmph/people-tui/internal/normalize"
)

// Options configures a Store.
type Options struct {
	PageSize      int
	BatchSize     int
	InitialLoad   int // records materialized by Load; 0 means all
	EnrichWorkers int
	Accounts      AccountLookup
	Logger        *zap.Logger
}

// Store owns the People view's State. All methods are safe for concurrent
// use; mutations run under one lock and events go out after it is released.
type Store struct {
	mu    sync.RWMutex
	state State
	pools filter.Pools

	source   Source
	accounts AccountLookup
	opts     Options
	logger   *zap.Logger

	flight singleflight.Group
	bus    *events.Bus[Event]
	bg     sync.WaitGroup
}

// New creates an empty store reading from src.
func New(src Source, opts Options) *Store {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = opts.PageSize
	}
	if opts.EnrichWorkers <= 0 {
		opts.EnrichWorkers = 8
	}
	if opts.Accounts == nil {
		opts.Accounts = NoAccounts{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		state:    NewState(opts.PageSize),
		pools:    filter.Pools{},
		source:   src,
		accounts: opts.Accounts,
		opts:     opts,
		logger:   logger.Named("people"),
		bus:      events.NewBus[Event](),
	}
}

// Subscribe returns a channel of store events and its unsubscribe func.
func (s *Store) Subscribe() (<-chan Event, func()) {
	return s.bus.Subscribe(0)
}

func (s *Store) emit(kinds ...EventKind) {
	s.mu.RLock()
	page := s.state.Page
	s.mu.RUnlock()
	for _, k := range kinds {
		if missed := s.bus.Notify(Event{Kind: k, Page: page}); missed > 0 {
			s.logger.Debug("event dropped for slow subscribers", zap.Stringer("kind", k), zap.Int("missed", missed))
		}
	}
}

func (s *Store) notice(err error) {
	s.bus.Notify(Event{Kind: EventNotice, Err: err})
}

// update applies fn to the state under the lock and rebuilds the pools when
// the data changed.
func (s *Store) update(fn func(State) State, dataChanged bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	if dataChanged {
		s.pools = filter.BuildPools(s.state.Loaded)
	}
}

// Load performs the initial bulk load, then refreshes the remote total in
// the background. A failed fetch leaves the store empty and is reported as
// a notice as well as returned.
func (s *Store) Load(ctx context.Context) error {
	records, err := s.source.FetchAll(ctx)
	if err != nil {
		s.logger.Warn("bulk load failed", zap.Error(err))
		err = fmt.Errorf("loading contacts: %w", err)
		s.notice(err)
		s.emit(EventDataLoaded)
		return err
	}

	records = dedupe(records)
	n := len(records)
	if s.opts.InitialLoad > 0 && s.opts.InitialLoad < n {
		n = s.opts.InitialLoad
	}
	initial := s.enrich(ctx, records[:n])
	full := append(append([]contact.Contact(nil), initial...), records[n:]...)

	s.update(func(st State) State {
		st.FullCache = full
		st.Loaded = append([]contact.Contact(nil), initial...)
		st.TotalCount = max(st.TotalCount, len(full))
		st.exhausted = false
		st.updateHasMore()
		return refilter(st)
	}, true)
	s.logger.Info("contacts loaded", zap.Int("cached", len(full)), zap.Int("loaded", len(initial)))
	s.emit(EventDataLoaded)

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		_ = s.RefreshTotal(context.WithoutCancel(ctx))
	}()
	return nil
}

// RefreshTotal fetches the remote total and updates TotalCount.
func (s *Store) RefreshTotal(ctx context.Context) error {
	total, err := s.source.FetchTotalCount(ctx)
	if err != nil {
		s.logger.Warn("counting contacts failed", zap.Error(err))
		return fmt.Errorf("counting contacts: %w", err)
	}
	s.SetTotalCount(total)
	return nil
}

// SetTotalCount records the remote total. It never drops below the number
// of records already fetched.
func (s *Store) SetTotalCount(total int) {
	s.update(func(st State) State {
		st.TotalCount = max(total, len(st.FullCache))
		st.updateHasMore()
		st.clampPage()
		return st
	}, false)
	s.emit(EventDataLoaded)
}

// Wait blocks until background work started by Load has finished.
func (s *Store) Wait() {
	s.bg.Wait()
}

// GoToPage moves to page n. When the page reaches past Loaded and more
// records exist, the next batch is loaded first. Concurrent calls share a
// single in-flight load.
func (s *Store) GoToPage(ctx context.Context, n int) error {
	s.mu.RLock()
	needs := s.state.needsMore(n)
	s.mu.RUnlock()

	var err error
	if needs {
		err = s.loadMore(ctx, n)
	}

	s.update(func(st State) State {
		st.Page = n
		st.clampPage()
		return st
	}, false)
	s.emit(EventPageChanged)
	return err
}

// LoadMore appends the next batch regardless of the current page.
func (s *Store) LoadMore(ctx context.Context) error {
	s.mu.RLock()
	next := len(s.state.Loaded)/s.state.pageSize() + 2
	s.mu.RUnlock()
	return s.loadMore(ctx, next)
}

// loadMore fetches batches until page n is covered or nothing more comes.
// Callers that joined another caller's flight recheck their own page.
func (s *Store) loadMore(ctx context.Context, page int) error {
	for {
		s.mu.RLock()
		need := s.state.needsMore(page)
		before := len(s.state.Loaded)
		s.mu.RUnlock()
		if !need {
			return nil
		}
		_, err, shared := s.flight.Do("load-more", func() (any, error) {
			return nil, s.fillTo(ctx, page)
		})
		if err != nil || !shared {
			return err
		}
		s.mu.RLock()
		progressed := len(s.state.Loaded) > before
		s.mu.RUnlock()
		if !progressed {
			return nil
		}
		s.logger.Debug("joined in-flight load", zap.Int("page", page))
	}
}

func (s *Store) fillTo(ctx context.Context, page int) error {
	for {
		s.mu.RLock()
		need := s.state.needsMore(page)
		s.mu.RUnlock()
		if !need {
			return nil
		}
		added, err := s.fetchNext(ctx)
		if err != nil {
			return err
		}
		if added == 0 {
			return nil
		}
	}
}

// fetchNext appends one batch, taken from FullCache when it holds records
// beyond Loaded and from the source otherwise.
func (s *Store) fetchNext(ctx context.Context) (int, error) {
	s.mu.RLock()
	offset := len(s.state.Loaded)
	var batch []contact.Contact
	if offset < len(s.state.FullCache) {
		end := min(offset+s.opts.BatchSize, len(s.state.FullCache))
		batch = append(batch, s.state.FullCache[offset:end]...)
	}
	s.mu.RUnlock()

	remote := batch == nil
	hasMore := true
	if remote {
		res, err := s.source.FetchBatch(ctx, offset, s.opts.BatchSize)
		if err != nil {
			s.logger.Warn("loading next batch failed", zap.Int("offset", offset), zap.Error(err))
			err = fmt.Errorf("loading contacts at offset %d: %w", offset, err)
			s.notice(err)
			return 0, err
		}
		batch, hasMore = res.Records, res.HasMore
	}

	batch = s.enrich(ctx, batch)

	var added int
	s.update(func(st State) State {
		st, added = appendBatch(st, batch, remote, hasMore)
		return refilter(st)
	}, true)
	s.logger.Debug("batch appended", zap.Int("offset", offset), zap.Int("added", added), zap.Bool("remote", remote))
	s.emit(EventDataLoaded)
	return added, nil
}

// enrich joins account data onto a copy of batch. Lookup errors and misses
// leave the contact as it was.
func (s *Store) enrich(ctx context.Context, batch []contact.Contact) []contact.Contact {
	out := append([]contact.Contact(nil), batch...)
	if _, none := s.accounts.(NoAccounts); none {
		return out
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.EnrichWorkers)
	for i := range out {
		i := i
		c := out[i]
		company := normalize.String(c.CompanyName)
		if c.AccountID == "" && company == "" {
			continue
		}
		g.Go(func() error {
			acct, err := s.accounts.LookupAccount(gctx, c.AccountID, company)
			if err != nil {
				s.logger.Debug("account lookup failed", zap.String("contact", c.ID), zap.Error(err))
				return nil
			}
			out[i] = c.Enrich(acct)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// enrichSnapshot enriches replacement records. A record whose account is
// unchanged keeps the account data it already carried; the rest are looked
// up.
func (s *Store) enrichSnapshot(ctx context.Context, records []contact.Contact) []contact.Contact {
	s.mu.RLock()
	prev := make(map[string]contact.Contact, len(s.state.FullCache))
	for _, c := range s.state.FullCache {
		prev[c.ID] = c
	}
	s.mu.RUnlock()

	out := make([]contact.Contact, len(records))
	var missing []int
	for i, c := range records {
		if p, ok := prev[c.ID]; ok && hasAccountData(p) && sameAccount(p, c) {
			out[i] = c.Enrich(accountOf(p))
			continue
		}
		out[i] = c
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return out
	}

	batch := make([]contact.Contact, len(missing))
	for j, i := range missing {
		batch[j] = out[i]
	}
	batch = s.enrich(ctx, batch)
	for j, i := range missing {
		out[i] = batch[j]
	}
	return out
}

func hasAccountData(c contact.Contact) bool {
	return c.AccountEmployees != "" || c.CompanyWebsite != "" || c.CompanyDomain != ""
}

func sameAccount(prev, next contact.Contact) bool {
	if next.AccountID != "" {
		return next.AccountID == prev.AccountID
	}
	return normalize.String(next.CompanyName) == normalize.String(prev.CompanyName)
}

func accountOf(c contact.Contact) *contact.Account {
	return &contact.Account{
		ID:        c.AccountID,
		Name:      c.CompanyName,
		Employees: c.AccountEmployees,
		Website:   c.CompanyWebsite,
		Domain:    c.CompanyDomain,
	}
}

// ApplyFilters recomputes Filtered from the current criteria. The page
// returns to 1 when the result changes.
func (s *Store) ApplyFilters() {
	var changed bool
	s.update(func(st State) State {
		st, changed = applyFilters(st)
		return st
	}, false)
	if changed {
		s.emit(EventFiltersChanged, EventPageChanged)
		return
	}
	s.emit(EventFiltersChanged)
}

// UpdateCriteria edits the criteria in place and re-applies the filters.
func (s *Store) UpdateCriteria(fn func(*filter.Criteria)) {
	s.update(func(st State) State {
		cr := st.Criteria.Clone()
		fn(&cr)
		st.Criteria = cr
		return st
	}, false)
	s.ApplyFilters()
}

// Criteria returns a copy of the active criteria.
func (s *Store) Criteria() filter.Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Criteria.Clone()
}

// Refilter recomputes Filtered without resetting the page. Used after data
// changes that did not come from the user editing filters.
func (s *Store) Refilter() {
	s.update(refilter, false)
	s.emit(EventFiltersChanged)
}

// MergeRecord shallow-merges patch into the record with the given ID. It
// returns false, changing nothing, when the ID is unknown.
func (s *Store) MergeRecord(id string, patch contact.Patch) bool {
	var found bool
	s.mu.Lock()
	s.state, found = mergeRecord(s.state, id, patch)
	if found {
		s.pools = filter.BuildPools(s.state.Loaded)
	}
	s.mu.Unlock()
	if found {
		s.emit(EventDataLoaded)
	}
	return found
}

// UpsertRecord inserts c at the front, replacing any record with its ID.
func (s *Store) UpsertRecord(c contact.Contact) {
	if c.ID == "" {
		return
	}
	s.update(func(st State) State {
		return upsertRecord(st, c)
	}, true)
	s.emit(EventDataLoaded)
}

// ReplaceLoaded makes records the whole collection and re-applies the
// filters, keeping the page where possible.
func (s *Store) ReplaceLoaded(records []contact.Contact) {
	records = s.enrichSnapshot(context.Background(), records)
	s.update(func(st State) State {
		return replaceLoaded(st, records)
	}, true)
	s.emit(EventDataLoaded, EventFiltersChanged)
}

// Remove deletes the IDs from the store and the selection in one step.
func (s *Store) Remove(ids []string) int {
	var removed int
	s.update(func(st State) State {
		st, removed = removeRecords(st, ids)
		return st
	}, true)
	s.emit(EventDataLoaded, EventSelectionChanged)
	return removed
}

// Reset drops all data and returns the store to its initial state.
func (s *Store) Reset() {
	s.mu.Lock()
	s.state = NewState(s.opts.PageSize)
	s.pools = filter.Pools{}
	s.mu.Unlock()
	s.emit(EventDataLoaded)
}

// Snapshot returns the current state. The returned value must be treated
// as read-only.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LoadedContacts returns the loaded records.
func (s *Store) LoadedContacts() []contact.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]contact.Contact(nil), s.state.Loaded...)
}

// FilteredContacts returns the records matching the criteria.
func (s *Store) FilteredContacts() []contact.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]contact.Contact(nil), s.state.Filtered...)
}

// PageItems returns the records on the current page.
func (s *Store) PageItems() []contact.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	return st.PageItems()
}

// PageCount returns the number of pages.
func (s *Store) PageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.PageCount()
}

// Page returns the current 1-based page.
func (s *Store) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Page
}

// Pools returns the suggestion pools of the loaded records.
func (s *Store) Pools() filter.Pools {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pools
}

// Get returns the record with the given ID from the full cache.
func (s *Store) Get(id string) (contact.Contact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.state.FullCache, id); i >= 0 {
		return s.state.FullCache[i], true
	}
	return contact.Contact{}, false
}

// SelectedContacts returns the selected records in FullCache order.
func (s *Store) SelectedContacts() []contact.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []contact.Contact
	for _, c := range s.state.FullCache {
		if _, on := s.state.Selection[c.ID]; on {
			out = append(out, c)
		}
	}
	return out
}
