package people

// Toggle flips the selection of id and reports whether anything changed.
// Unknown IDs are never selected.
func (s *Store) Toggle(id string) bool {
	var changed bool
	s.update(func(st State) State {
		st, changed = toggle(st, id)
		return st
	}, false)
	if changed {
		s.emit(EventSelectionChanged)
	}
	return changed
}

// SelectMany selects every known ID and returns how many were added.
func (s *Store) SelectMany(ids []string) int {
	var added int
	s.update(func(st State) State {
		st, added = selectMany(st, ids)
		return st
	}, false)
	if added > 0 {
		s.emit(EventSelectionChanged)
	}
	return added
}

// SelectFirstN selects the first n records of the filtered order.
func (s *Store) SelectFirstN(n int) int {
	var added int
	s.update(func(st State) State {
		st, added = selectFirstN(st, n)
		return st
	}, false)
	if added > 0 {
		s.emit(EventSelectionChanged)
	}
	return added
}

// SelectPage selects every record on the current page, or clears them when
// the page is already fully selected.
func (s *Store) SelectPage() {
	s.update(func(st State) State {
		page := st.PageItems()
		if aggregateFor(st.Selection, page) == SelectAll {
			sel := cloneSelection(st.Selection)
			for _, c := range page {
				delete(sel, c.ID)
			}
			st.Selection = sel
			return st
		}
		ids := make([]string, 0, len(page))
		for _, c := range page {
			ids = append(ids, c.ID)
		}
		st, _ = selectMany(st, ids)
		return st
	}, false)
	s.emit(EventSelectionChanged)
}

// ClearSelection deselects everything.
func (s *Store) ClearSelection() {
	s.update(clearSelection, false)
	s.emit(EventSelectionChanged)
}

// IsSelected reports whether id is selected.
func (s *Store) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, on := s.state.Selection[id]
	return on
}

// Selection returns the selected IDs, sorted.
func (s *Store) Selection() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedIDs(s.state.Selection)
}

// AggregateForPage reports how much of the current page is selected.
func (s *Store) AggregateForPage() Aggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	return aggregateFor(st.Selection, st.PageItems())
}
