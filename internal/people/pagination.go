package people

import "github.com/pdxmph/people-tui/internal/contact"

// SearchMode reports whether criteria narrow the view. Search results are
// fully materialized, so paging counts Filtered instead of the remote total.
func (s *State) SearchMode() bool {
	return s.Criteria.Active()
}

func (s *State) pagingDenominator() int {
	if s.SearchMode() {
		return len(s.Filtered)
	}
	// The remote total may not be known yet, or may lag local creations.
	return max(s.TotalCount, len(s.Filtered))
}

// PageCount is max(1, ceil(denominator / PageSize)).
func (s *State) PageCount() int {
	size := s.pageSize()
	return max(1, (s.pagingDenominator()+size-1)/size)
}

// PageItems clamps the page and returns its slice of Filtered.
func (s *State) PageItems() []contact.Contact {
	s.clampPage()
	start, end := s.pageBounds(s.Page)
	if start >= len(s.Filtered) {
		return nil
	}
	end = min(end, len(s.Filtered))
	return append([]contact.Contact(nil), s.Filtered[start:end]...)
}

// needsMore reports whether showing page n requires records beyond Loaded.
func (s *State) needsMore(n int) bool {
	if s.SearchMode() || !s.HasMore {
		return false
	}
	_, end := s.pageBounds(s.clamp(n))
	return end > len(s.Loaded)
}

func (s *State) pageBounds(page int) (start, end int) {
	size := s.pageSize()
	return (page - 1) * size, page * size
}

func (s *State) clamp(n int) int {
	return min(max(n, 1), s.PageCount())
}

func (s *State) clampPage() {
	s.Page = s.clamp(s.Page)
}

func (s *State) pageSize() int {
	if s.PageSize <= 0 {
		return DefaultPageSize
	}
	return s.PageSize
}
