package people

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdxmph/people-tui/internal/contact"
	"github.com/pdxmph/people-tui/internal/filter"
)

func newLoadedStore(t *testing.T, src *fakeSource, opts Options) *Store {
	t.Helper()
	opts.Logger = zaptest.NewLogger(t)
	s := New(src, opts)
	require.NoError(t, s.Load(context.Background()))
	s.Wait()
	return s
}

func ids(list []contact.Contact) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.ID)
	}
	return out
}

func TestLoadPopulatesStore(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 10), total: 10}
	s := newLoadedStore(t, src, Options{})

	assert.Len(t, s.LoadedContacts(), 10)
	assert.Len(t, s.FilteredContacts(), 10)
	assert.Equal(t, 10, s.Snapshot().TotalCount)
	assert.False(t, s.Snapshot().HasMore)
	assert.NotEmpty(t, s.Pools()[filter.Company])
}

func TestLoadFailureLeavesEmptyStoreAndNotifies(t *testing.T) {
	src := &fakeSource{allErr: errors.New("network down")}
	s := New(src, Options{Logger: zaptest.NewLogger(t)})
	events, unsub := s.Subscribe()
	defer unsub()

	err := s.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network down")
	assert.Empty(t, s.LoadedContacts())
	assert.Empty(t, s.PageItems())

	ev := <-events
	assert.Equal(t, EventNotice, ev.Kind)
	assert.ErrorContains(t, ev.Err, "network down")
}

func TestPaginationClamp(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 10)}
	s := newLoadedStore(t, src, Options{PageSize: 50})

	assert.Equal(t, 1, s.PageCount())
	require.NoError(t, s.GoToPage(context.Background(), 5))
	assert.Equal(t, 1, s.Page())
	assert.Len(t, s.PageItems(), 10)

	require.NoError(t, s.GoToPage(context.Background(), -3))
	assert.Equal(t, 1, s.Page())
}

func TestBrowseModeUsesRemoteTotal(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 60), total: 500}
	s := newLoadedStore(t, src, Options{PageSize: 50})

	assert.Equal(t, 10, s.PageCount())

	s.UpdateCriteria(func(cr *filter.Criteria) { cr.Query = "person 5" })
	// Search mode pages over the materialized matches only.
	assert.Equal(t, 1, s.PageCount())
}

func TestApplyFiltersReturnsToFirstPage(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 120)}
	s := newLoadedStore(t, src, Options{PageSize: 50})
	require.NoError(t, s.GoToPage(context.Background(), 3))
	require.Equal(t, 3, s.Page())

	// A filter every record matches leaves the result, and so the page, alone.
	s.UpdateCriteria(func(cr *filter.Criteria) { cr.Tokens.List(filter.Company).Add("company") })
	assert.Equal(t, 3, s.Page())
	s.ApplyFilters()
	assert.Equal(t, 3, s.Page())

	s.UpdateCriteria(func(cr *filter.Criteria) {
		cr.Tokens.List(filter.Company).Clear()
		cr.Tokens.List(filter.Company).Add("Company 1")
	})
	assert.Equal(t, 1, s.Page())
}

func TestMergeRecordUnknownIDIsNoop(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 5)}
	s := newLoadedStore(t, src, Options{})
	before := s.Snapshot()

	assert.False(t, s.MergeRecord("nonexistent-id", contact.Patch{"title": "X"}))

	after := s.Snapshot()
	assert.Equal(t, before.Loaded, after.Loaded)
	assert.Equal(t, before.Filtered, after.Filtered)
}

func TestMergeRecordKeepsOrder(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 5)}
	s := newLoadedStore(t, src, Options{})

	require.True(t, s.MergeRecord("c002", contact.Patch{"title": "CEO", "city": "Austin"}))

	loaded := s.LoadedContacts()
	assert.Equal(t, []string{"c000", "c001", "c002", "c003", "c004"}, ids(loaded))
	assert.Equal(t, "CEO", loaded[2].Title)
	assert.Equal(t, "Company 2", loaded[2].CompanyName, "unspecified fields untouched")
	assert.Equal(t, "CEO", s.FilteredContacts()[2].Title)
	assert.Contains(t, s.Pools()[filter.City], "Austin")
}

func TestUpsertRecordDedupesAndPrepends(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 3)}
	s := newLoadedStore(t, src, Options{})

	s.UpsertRecord(contact.Contact{ID: "c001", Title: "Moved"})
	s.Refilter()
	assert.Equal(t, []string{"c001", "c000", "c002"}, ids(s.LoadedContacts()))

	s.UpsertRecord(contact.Contact{ID: "new", Title: "Fresh"})
	s.Refilter()
	assert.Equal(t, []string{"new", "c001", "c000", "c002"}, ids(s.FilteredContacts()))
	assert.Equal(t, 4, s.Snapshot().TotalCount)
}

func TestSelectionSurvivesFiltering(t *testing.T) {
	src := &fakeSource{all: []contact.Contact{
		{ID: "x", City: "Austin"},
		{ID: "y", City: "Dallas"},
	}}
	s := newLoadedStore(t, src, Options{})

	require.True(t, s.Toggle("x"))
	s.UpdateCriteria(func(cr *filter.Criteria) { cr.Tokens.List(filter.City).Add("Dallas") })
	assert.Equal(t, []string{"y"}, ids(s.FilteredContacts()))
	assert.True(t, s.IsSelected("x"))

	s.UpdateCriteria(func(cr *filter.Criteria) { cr.Tokens.List(filter.City).Clear() })
	assert.True(t, s.IsSelected("x"))
	assert.Equal(t, SelectSome, s.AggregateForPage())
}

func TestToggleRejectsUnknownIDs(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 2)}
	s := newLoadedStore(t, src, Options{})

	assert.False(t, s.Toggle("ghost"))
	assert.Equal(t, 1, s.SelectMany([]string{"ghost", "c000", "c000"}))
	assert.Equal(t, []string{"c000"}, s.Selection())

	assert.True(t, s.Toggle("c000"))
	assert.Empty(t, s.Selection())
}

func TestDeletionPrunesSelection(t *testing.T) {
	src := &fakeSource{all: []contact.Contact{{ID: "x"}, {ID: "y"}, {ID: "z"}}}
	s := newLoadedStore(t, src, Options{})
	s.SelectMany([]string{"x", "y"})

	assert.Equal(t, 1, s.Remove([]string{"x"}))

	st := s.Snapshot()
	assert.Equal(t, []string{"y"}, sortedIDs(st.Selection))
	assert.Equal(t, []string{"y", "z"}, ids(st.Loaded))
	assert.Equal(t, []string{"y", "z"}, ids(st.Filtered))
	assert.Equal(t, []string{"y", "z"}, ids(st.FullCache))
}

func TestAggregateForPage(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 4)}
	s := newLoadedStore(t, src, Options{PageSize: 2})

	assert.Equal(t, SelectNone, s.AggregateForPage())
	s.Toggle("c000")
	assert.Equal(t, SelectSome, s.AggregateForPage())
	s.Toggle("c001")
	assert.Equal(t, SelectAll, s.AggregateForPage())

	// Page 2 has nothing selected even though page 1 is full.
	require.NoError(t, s.GoToPage(context.Background(), 2))
	assert.Equal(t, SelectNone, s.AggregateForPage())

	s.SelectPage()
	assert.Equal(t, SelectAll, s.AggregateForPage())
	s.SelectPage()
	assert.Equal(t, SelectNone, s.AggregateForPage())
	assert.Equal(t, []string{"c000", "c001"}, s.Selection())
}

func TestSelectFirstNUsesFilteredOrder(t *testing.T) {
	src := &fakeSource{all: []contact.Contact{
		{ID: "a", Title: "Engineer"},
		{ID: "b", Title: "VP Sales"},
		{ID: "c", Title: "Designer"},
		{ID: "d", Title: "SVP"},
	}}
	s := newLoadedStore(t, src, Options{})
	s.UpdateCriteria(func(cr *filter.Criteria) { cr.Tokens.List(filter.Title).Add("vp") })

	assert.Equal(t, 2, s.SelectFirstN(5))
	assert.Equal(t, []string{"b", "d"}, s.Selection())

	s.ClearSelection()
	assert.Equal(t, 1, s.SelectFirstN(1))
	assert.Equal(t, []string{"b"}, s.Selection())
}

func TestGoToPageLoadsMoreEndToEnd(t *testing.T) {
	remote := makeContacts(0, 150)
	src := &fakeSource{all: remote[:120], remote: remote, total: 300}
	accounts := &countingAccounts{}
	s := newLoadedStore(t, src, Options{PageSize: 50, BatchSize: 50, Accounts: accounts})
	require.True(t, s.Snapshot().HasMore)
	require.Equal(t, 6, s.PageCount())
	initialLookups := accounts.total()
	require.Equal(t, 120, initialLookups)

	require.NoError(t, s.GoToPage(context.Background(), 3))

	assert.Equal(t, int32(1), src.batchCalls.Load())
	assert.Equal(t, 3, s.Page())
	page := s.PageItems()
	require.Len(t, page, 50)
	assert.Equal(t, ids(remote[100:150]), ids(page))
	assert.Len(t, s.LoadedContacts(), 150)
	assert.Equal(t, 30, accounts.total()-initialLookups, "only the appended slice is enriched")
	assert.Equal(t, "120", page[25].AccountEmployees)
}

func TestConcurrentGoToPageSharesOneLoad(t *testing.T) {
	remote := makeContacts(0, 150)
	src := &fakeSource{
		all:     remote[:120],
		remote:  remote,
		total:   300,
		gate:    make(chan struct{}),
		started: make(chan struct{}, 4),
	}
	s := newLoadedStore(t, src, Options{PageSize: 50})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.GoToPage(context.Background(), 3)
		}()
	}

	<-src.started
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int32(1), src.batchCalls.Load())
	assert.Len(t, s.LoadedContacts(), 150)
}

func TestGoToPageFarAheadFetchesUntilCovered(t *testing.T) {
	remote := makeContacts(0, 300)
	src := &fakeSource{all: remote[:120], remote: remote, total: 300}
	s := newLoadedStore(t, src, Options{PageSize: 50, BatchSize: 50})

	require.NoError(t, s.GoToPage(context.Background(), 6))

	assert.Equal(t, 6, s.Page())
	page := s.PageItems()
	require.Len(t, page, 50)
	assert.Equal(t, ids(remote[250:300]), ids(page))
	assert.Equal(t, int32(4), src.batchCalls.Load())
	assert.False(t, s.Snapshot().HasMore)
}

func TestJoinedLoadStillCoversFartherPage(t *testing.T) {
	remote := makeContacts(0, 300)
	src := &fakeSource{
		all:     remote[:120],
		remote:  remote,
		total:   300,
		gate:    make(chan struct{}),
		started: make(chan struct{}, 8),
	}
	s := newLoadedStore(t, src, Options{PageSize: 50, BatchSize: 50})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[0] = s.GoToPage(context.Background(), 3)
	}()
	<-src.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[1] = s.GoToPage(context.Background(), 5)
	}()
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	loaded := s.LoadedContacts()
	assert.GreaterOrEqual(t, len(loaded), 250, "page 5 is fully loaded")
	assert.Equal(t, ids(remote[:len(loaded)]), ids(loaded))
}

func TestReplaceLoadedKeepsAccountData(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 14)}
	accounts := &countingAccounts{}
	s := newLoadedStore(t, src, Options{PageSize: 50, Accounts: accounts})
	require.Equal(t, 14, accounts.total())

	s.UpdateCriteria(func(cr *filter.Criteria) {
		cr.Tokens.List(filter.Employees).Add("120")
	})
	// company 3 lookups fail, so those two records never match.
	require.Len(t, s.FilteredContacts(), 12)

	next := makeContacts(0, 15)
	s.ReplaceLoaded(next)

	assert.Len(t, s.FilteredContacts(), 13)
	assert.Equal(t, []string{"120"}, s.Pools()[filter.Employees])
	// Only the new record and the two never-enriched ones are looked up again.
	assert.Equal(t, 14+3, accounts.total())
	got, ok := s.Get("c014")
	require.True(t, ok)
	assert.Equal(t, "120", got.AccountEmployees)
}

func TestLoadMorePrefersHeldCache(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 200), total: 200}
	s := newLoadedStore(t, src, Options{PageSize: 50, InitialLoad: 100})
	require.Len(t, s.LoadedContacts(), 100)
	require.True(t, s.Snapshot().HasMore)

	require.NoError(t, s.GoToPage(context.Background(), 3))

	assert.Zero(t, src.batchCalls.Load())
	assert.Len(t, s.LoadedContacts(), 150)
	assert.Equal(t, "c100", s.PageItems()[0].ID)
}

func TestLoadMoreFailureKeepsLoadedRecords(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 60), total: 200, batchErr: errors.New("timeout")}
	s := newLoadedStore(t, src, Options{PageSize: 50})

	err := s.GoToPage(context.Background(), 2)
	require.Error(t, err)
	assert.Len(t, s.LoadedContacts(), 60)
	assert.Equal(t, 2, s.Page())
	assert.Len(t, s.PageItems(), 10)
}

func TestStaleBatchDoesNotDuplicate(t *testing.T) {
	st := NewState(50)
	st.FullCache = makeContacts(0, 10)
	st.Loaded = makeContacts(0, 10)

	batch := makeContacts(10, 20)
	st, added := appendBatch(st, batch, true, true)
	require.Equal(t, 10, added)

	st, added = appendBatch(st, append(makeContacts(5, 15), makeContacts(20, 22)...), true, false)
	assert.Equal(t, 2, added)
	assert.Equal(t, ids(makeContacts(0, 22)), ids(st.Loaded))
	assert.Equal(t, ids(makeContacts(0, 22)), ids(st.FullCache))
	assert.False(t, st.HasMore)
}

func TestReplaceLoadedPrunesMissingSelection(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 5)}
	s := newLoadedStore(t, src, Options{})
	s.SelectMany([]string{"c000", "c004"})

	s.ReplaceLoaded(append(makeContacts(0, 3), makeContacts(0, 1)...))

	assert.Equal(t, []string{"c000"}, s.Selection())
	assert.Equal(t, []string{"c000", "c001", "c002"}, ids(s.LoadedContacts()))
	assert.Equal(t, 3, s.Snapshot().TotalCount)
	assert.False(t, s.Snapshot().HasMore)
}

func TestFilteredStaysWithinLoaded(t *testing.T) {
	remote := makeContacts(0, 150)
	src := &fakeSource{all: remote[:100], remote: remote, total: 150}
	s := newLoadedStore(t, src, Options{PageSize: 25, BatchSize: 25, InitialLoad: 40})

	check := func() {
		st := s.Snapshot()
		full := idSet(st.FullCache)
		loaded := idSet(st.Loaded)
		for id := range loaded {
			require.Contains(t, full, id)
		}
		for _, c := range st.Filtered {
			require.Contains(t, loaded, c.ID)
		}
	}

	check()
	require.NoError(t, s.GoToPage(context.Background(), 3))
	check()
	s.UpdateCriteria(func(cr *filter.Criteria) { cr.Query = "company 2" })
	check()
	s.UpsertRecord(contact.Contact{ID: "fresh", CompanyName: "Company 2"})
	s.Refilter()
	check()
	s.Remove([]string{"c002", "fresh"})
	check()
}

func TestCachedSourceAvoidsSecondFetch(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 3)}
	cache := &memCache{}
	cached := NewCachedSource(src, cache, "contacts:all", zaptest.NewLogger(t))

	first, err := cached.FetchAll(context.Background())
	require.NoError(t, err)
	second, err := cached.FetchAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, int32(1), src.allCalls.Load())

	require.NoError(t, cached.Invalidate())
	_, err = cached.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.allCalls.Load())
}

func TestCachedSourceSkipsUnchangedPut(t *testing.T) {
	cache := &memCache{}
	cached := NewCachedSource(&fakeSource{}, cache, "contacts:all", zaptest.NewLogger(t))

	cached.Put(makeContacts(0, 3))
	cached.Put(makeContacts(0, 3))
	assert.Equal(t, 1, cache.setCount())

	cached.Put(makeContacts(0, 4))
	assert.Equal(t, 2, cache.setCount())
}

func TestCachedSourceToleratesCacheFailures(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 3)}
	cache := &memCache{fail: true, data: map[string][]byte{"k": []byte("{not json")}}
	cached := NewCachedSource(src, cache, "k", zaptest.NewLogger(t))

	got, err := cached.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestViewStateRoundTrip(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 120)}
	s := newLoadedStore(t, src, Options{PageSize: 10})
	s.UpdateCriteria(func(cr *filter.Criteria) {
		cr.Tokens.List(filter.Company).Add("Company 1")
		cr.RequireEmail = false
	})
	require.NoError(t, s.GoToPage(context.Background(), 2))
	s.SelectMany([]string{"c001", "c008"})

	cache := &memCache{}
	require.NoError(t, SaveViewState(cache, "view", s.CurrentViewState()))

	other := newLoadedStore(t, &fakeSource{all: makeContacts(0, 120)}, Options{PageSize: 10})
	v, ok := LoadViewState(cache, "view")
	require.True(t, ok)
	other.RestoreViewState(v)

	assert.Equal(t, s.CurrentViewState(), other.CurrentViewState())
	assert.Equal(t, ids(s.PageItems()), ids(other.PageItems()))

	_, ok = LoadViewState(cache, "missing")
	assert.False(t, ok)
}

func TestEventsAreTyped(t *testing.T) {
	src := &fakeSource{all: makeContacts(0, 120)}
	s := newLoadedStore(t, src, Options{PageSize: 50})
	ch, unsub := s.Subscribe()
	defer unsub()

	require.NoError(t, s.GoToPage(context.Background(), 2))
	ev := <-ch
	assert.Equal(t, EventPageChanged, ev.Kind)
	assert.Equal(t, 2, ev.Page)

	s.Toggle("c000")
	assert.Equal(t, EventSelectionChanged, (<-ch).Kind)
	assert.Equal(t, "selectionChanged", EventSelectionChanged.String())
}
