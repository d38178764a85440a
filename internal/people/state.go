// Package people is the data layer of the People view: the contact store,
// its pagination and selection, and the view state that survives
// navigation.
//
// Every mutation is a function from one State to the next. The functions
// never write into slices or maps reachable from their input, so a State
// handed out earlier stays valid.
package people

import (
	"github.com/pdxmph/people-tui/internal/contact"
	"github.com/pdxmph/people-tui/internal/filter"
)

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 50

// State is the contact collection as the view sees it.
//
// FullCache holds every record fetched so far. Loaded is the prefix of
// FullCache materialized for paging and Filtered the subset of Loaded
// matching Criteria, in Loaded order.
type State struct {
	FullCache  []contact.Contact
	Loaded     []contact.Contact
	Filtered   []contact.Contact
	HasMore    bool
	TotalCount int
	Page       int
	PageSize   int
	Criteria   filter.Criteria
	Selection  map[string]struct{}

	// exhausted is set once the remote reported no further batches.
	exhausted bool
}

// NewState returns an empty state on page 1.
func NewState(pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{
		Page:      1,
		PageSize:  pageSize,
		Selection: make(map[string]struct{}),
	}
}

func (s *State) updateHasMore() {
	s.HasMore = len(s.Loaded) < len(s.FullCache) ||
		(!s.exhausted && s.TotalCount > len(s.FullCache))
}

// applyFilters recomputes Filtered from Loaded. When the filtered ID
// sequence changes the page goes back to 1.
func applyFilters(s State) (State, bool) {
	before := s.Filtered
	s.Filtered = filter.Apply(s.Loaded, &s.Criteria)
	changed := !sameIDs(before, s.Filtered)
	if changed {
		s.Page = 1
	}
	s.clampPage()
	return s, changed
}

// refilter recomputes Filtered but keeps the page, clamped.
func refilter(s State) State {
	s.Filtered = filter.Apply(s.Loaded, &s.Criteria)
	s.clampPage()
	return s
}

// mergeRecord shallow-merges patch into the record with the given ID
// wherever it appears, keeping positions. An unknown ID leaves s untouched.
func mergeRecord(s State, id string, patch contact.Patch) (State, bool) {
	found := false
	merge := func(list []contact.Contact) []contact.Contact {
		i := indexOf(list, id)
		if i < 0 {
			return list
		}
		found = true
		out := append([]contact.Contact(nil), list...)
		out[i] = out[i].Apply(patch)
		return out
	}
	s.FullCache = merge(s.FullCache)
	s.Loaded = merge(s.Loaded)
	s.Filtered = merge(s.Filtered)
	return s, found
}

// upsertRecord drops any record with c's ID, then prepends c to FullCache
// and Loaded. Filtered is left for the next filter pass.
func upsertRecord(s State, c contact.Contact) State {
	isNew := indexOf(s.FullCache, c.ID) < 0 && indexOf(s.Loaded, c.ID) < 0
	s.FullCache = prepend(without(s.FullCache, c.ID), c)
	s.Loaded = prepend(without(s.Loaded, c.ID), c)
	if isNew && s.TotalCount > 0 {
		s.TotalCount++
	}
	s.updateHasMore()
	return s
}

// appendBatch appends the records not yet in Loaded, keyed by ID, so a
// batch applied twice or out of order never duplicates rows. Records
// already in FullCache are replaced there with the batch copy.
func appendBatch(s State, batch []contact.Contact, remote bool, remoteHasMore bool) (State, int) {
	loadedIDs := idSet(s.Loaded)
	cacheIdx := make(map[string]int, len(s.FullCache))
	for i, c := range s.FullCache {
		cacheIdx[c.ID] = i
	}

	loaded := append([]contact.Contact(nil), s.Loaded...)
	full := append([]contact.Contact(nil), s.FullCache...)
	added := 0
	for _, c := range batch {
		if _, dup := loadedIDs[c.ID]; dup || c.ID == "" {
			continue
		}
		loadedIDs[c.ID] = struct{}{}
		loaded = append(loaded, c)
		if i, ok := cacheIdx[c.ID]; ok {
			full[i] = c
		} else {
			cacheIdx[c.ID] = len(full)
			full = append(full, c)
		}
		added++
	}
	s.Loaded = loaded
	s.FullCache = full
	if remote && !remoteHasMore {
		s.exhausted = true
	}
	if len(s.FullCache) > s.TotalCount && s.TotalCount > 0 {
		s.TotalCount = len(s.FullCache)
	}
	s.updateHasMore()
	return s, added
}

// replaceLoaded makes records the whole collection: a reconciliation, not
// a merge. Selected IDs that no longer exist are pruned.
func replaceLoaded(s State, records []contact.Contact) State {
	records = dedupe(records)
	s.FullCache = records
	s.Loaded = append([]contact.Contact(nil), records...)
	s.TotalCount = len(records)
	s.exhausted = true
	s.Selection = pruneSelection(s.Selection, idSet(records))
	s.updateHasMore()
	return refilter(s)
}

// removeRecords deletes the IDs from every collection and from the
// selection in the same step.
func removeRecords(s State, ids []string) (State, int) {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	keep := func(list []contact.Contact) ([]contact.Contact, int) {
		out := make([]contact.Contact, 0, len(list))
		removed := 0
		for _, c := range list {
			if _, gone := drop[c.ID]; gone {
				removed++
				continue
			}
			out = append(out, c)
		}
		return out, removed
	}

	var removed int
	s.FullCache, removed = keep(s.FullCache)
	s.Loaded, _ = keep(s.Loaded)
	s.Filtered, _ = keep(s.Filtered)

	sel := make(map[string]struct{}, len(s.Selection))
	for id := range s.Selection {
		if _, gone := drop[id]; !gone {
			sel[id] = struct{}{}
		}
	}
	s.Selection = sel

	s.TotalCount -= removed
	if s.TotalCount < 0 {
		s.TotalCount = 0
	}
	s.updateHasMore()
	s.clampPage()
	return s, removed
}

func indexOf(list []contact.Contact, id string) int {
	for i, c := range list {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func without(list []contact.Contact, id string) []contact.Contact {
	i := indexOf(list, id)
	if i < 0 {
		return list
	}
	out := make([]contact.Contact, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

func prepend(list []contact.Contact, c contact.Contact) []contact.Contact {
	out := make([]contact.Contact, 0, len(list)+1)
	out = append(out, c)
	return append(out, list...)
}

func dedupe(records []contact.Contact) []contact.Contact {
	seen := make(map[string]struct{}, len(records))
	out := make([]contact.Contact, 0, len(records))
	for _, c := range records {
		if _, dup := seen[c.ID]; dup || c.ID == "" {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func idSet(list []contact.Contact) map[string]struct{} {
	ids := make(map[string]struct{}, len(list))
	for _, c := range list {
		ids[c.ID] = struct{}{}
	}
	return ids
}

func sameIDs(a, b []contact.Contact) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
