package people

// EventKind identifies what changed in the store.
type EventKind int

const (
	EventDataLoaded EventKind = iota
	EventFiltersChanged
	EventPageChanged
	EventSelectionChanged
	EventNotice
)

func (k EventKind) String() string {
	switch k {
	case EventDataLoaded:
		return "dataLoaded"
	case EventFiltersChanged:
		return "filtersChanged"
	case EventPageChanged:
		return "pageChanged"
	case EventSelectionChanged:
		return "selectionChanged"
	case EventNotice:
		return "notice"
	}
	return "unknown"
}

// Event tells subscribers the store changed. Subscribers re-read whatever
// they display; events carry no state beyond the page and, for notices, the
// error the user should see.
type Event struct {
	Kind EventKind
	Page int
	Err  error
}
