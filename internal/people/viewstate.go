package people

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/pdxmph/people-tui/internal/filter"
)

// ViewState is what navigating away from and back to the view preserves.
type ViewState struct {
	Tokens       map[string][]string `json:"tokens,omitempty"`
	Query        string              `json:"query,omitempty"`
	RequireEmail bool                `json:"requireEmail,omitempty"`
	RequirePhone bool                `json:"requirePhone,omitempty"`
	Page         int                 `json:"page"`
	Selection    []string            `json:"selection,omitempty"`
}

// CurrentViewState captures criteria, page and selection.
func (s *Store) CurrentViewState() ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cr := s.state.Criteria.Clone()
	return ViewState{
		Tokens:       cr.Tokens.ToMap(),
		Query:        cr.Query,
		RequireEmail: cr.RequireEmail,
		RequirePhone: cr.RequirePhone,
		Page:         s.state.Page,
		Selection:    sortedIDs(s.state.Selection),
	}
}

// RestoreViewState reinstates a captured view. The page is clamped and
// selected IDs no longer in the cache are dropped.
func (s *Store) RestoreViewState(v ViewState) {
	s.update(func(st State) State {
		st.Criteria = filter.Criteria{
			Tokens:       filter.SetFromMap(v.Tokens),
			Query:        v.Query,
			RequireEmail: v.RequireEmail,
			RequirePhone: v.RequirePhone,
		}
		st = refilter(st)
		st.Page = v.Page
		st.clampPage()
		st.Selection = make(map[string]struct{})
		st, _ = selectMany(st, v.Selection)
		return st
	}, false)
	s.emit(EventFiltersChanged, EventPageChanged, EventSelectionChanged)
}

// SaveViewState writes v to cache under key.
func SaveViewState(cache Cache, key string, v ViewState) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding view state: %w", err)
	}
	if err := cache.Set(key, data); err != nil {
		return fmt.Errorf("saving view state: %w", err)
	}
	return nil
}

// LoadViewState reads a view state saved by SaveViewState.
func LoadViewState(cache Cache, key string) (ViewState, bool) {
	data, ok := cache.Get(key)
	if !ok || len(data) == 0 {
		return ViewState{}, false
	}
	var v ViewState
	if err := json.Unmarshal(data, &v); err != nil {
		return ViewState{}, false
	}
	return v, true
}
