package people

import (
	"sort"

	"github.com/pdxmph/people-tui/internal/contact"
)

// Aggregate is the select-all checkbox state of a page.
type Aggregate int

const (
	SelectNone Aggregate = iota
	SelectSome
	SelectAll
)

func (a Aggregate) String() string {
	switch a {
	case SelectSome:
		return "some"
	case SelectAll:
		return "all"
	}
	return "none"
}

// toggle flips id. IDs not in FullCache cannot be selected.
func toggle(s State, id string) (State, bool) {
	if _, on := s.Selection[id]; on {
		s.Selection = cloneSelection(s.Selection)
		delete(s.Selection, id)
		return s, true
	}
	if indexOf(s.FullCache, id) < 0 {
		return s, false
	}
	s.Selection = cloneSelection(s.Selection)
	s.Selection[id] = struct{}{}
	return s, true
}

// selectMany adds every known ID and returns how many were added.
func selectMany(s State, ids []string) (State, int) {
	known := idSet(s.FullCache)
	sel := cloneSelection(s.Selection)
	added := 0
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			continue
		}
		if _, on := sel[id]; on {
			continue
		}
		sel[id] = struct{}{}
		added++
	}
	s.Selection = sel
	return s, added
}

// selectFirstN selects the first n IDs in Filtered order.
func selectFirstN(s State, n int) (State, int) {
	n = min(max(n, 0), len(s.Filtered))
	ids := make([]string, 0, n)
	for _, c := range s.Filtered[:n] {
		ids = append(ids, c.ID)
	}
	return selectMany(s, ids)
}

func clearSelection(s State) State {
	s.Selection = make(map[string]struct{})
	return s
}

// aggregateFor reports how much of page is selected.
func aggregateFor(sel map[string]struct{}, page []contact.Contact) Aggregate {
	if len(page) == 0 {
		return SelectNone
	}
	n := 0
	for _, c := range page {
		if _, on := sel[c.ID]; on {
			n++
		}
	}
	switch {
	case n == 0:
		return SelectNone
	case n == len(page):
		return SelectAll
	}
	return SelectSome
}

func pruneSelection(sel map[string]struct{}, known map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(sel))
	for id := range sel {
		if _, ok := known[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

func cloneSelection(sel map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(sel)+1)
	for id := range sel {
		out[id] = struct{}{}
	}
	return out
}

func sortedIDs(sel map[string]struct{}) []string {
	ids := make([]string, 0, len(sel))
	for id := range sel {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
