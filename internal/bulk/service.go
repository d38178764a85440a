// Package bulk carries out actions on the People view's selection and
// single-record edits: deleting, adding to lists and sequences, exporting,
// and editing a field.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/pdxmph/people-tui/internal/contact"
	"github.com/pdxmph/people-tui/internal/db"
	"github.com/pdxmph/people-tui/internal/events"
	"github.com/pdxmph/people-tui/internal/livesync"
	"github.com/pdxmph/people-tui/internal/normalize"
	"github.com/pdxmph/people-tui/internal/people"
)

// ErrNothingSelected is returned by selection actions on an empty selection.
var ErrNothingSelected = errors.New("nothing selected")

// Writer is the persistence the actions need.
type Writer interface {
	DeleteContacts(ctx context.Context, ids []string) (int, error)
	AddMembers(ctx context.Context, kind db.MembershipKind, name string, ids []string) (int, error)
	UpdateContactFields(ctx context.Context, id string, patch contact.Patch) error
}

// EditableFields are the contact fields the detail panel can edit, in
// display order.
var EditableFields = []string{"title", "email", "mobile", "workDirectPhone", "otherPhone", "city", "state"}

var phoneFields = map[string]bool{"mobile": true, "workDirectPhone": true, "otherPhone": true}

// Service runs bulk actions against a store and its backing writer.
type Service struct {
	store  *people.Store
	writer Writer
	bus    *events.Bus[livesync.RecordEvent]
	logger *zap.Logger
}

// NewService creates a service. Edits are announced on bus when it is not
// nil.
func NewService(store *people.Store, writer Writer, bus *events.Bus[livesync.RecordEvent], logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, writer: writer, bus: bus, logger: logger.Named("bulk")}
}

// DeleteSelected deletes the selected contacts from the writer, then from
// the store and the selection in one step.
func (s *Service) DeleteSelected(ctx context.Context) (int, error) {
	ids := s.store.Selection()
	if len(ids) == 0 {
		return 0, ErrNothingSelected
	}
	if _, err := s.writer.DeleteContacts(ctx, ids); err != nil {
		return 0, fmt.Errorf("deleting selected contacts: %w", err)
	}
	removed := s.store.Remove(ids)
	s.logger.Info("deleted selected contacts", zap.Int("requested", len(ids)), zap.Int("removed", removed))
	return removed, nil
}

// AddSelectedTo adds the selected contacts to a list or sequence. The
// selection is kept.
func (s *Service) AddSelectedTo(ctx context.Context, kind db.MembershipKind, name string) (int, error) {
	ids := s.store.Selection()
	if len(ids) == 0 {
		return 0, ErrNothingSelected
	}
	added, err := s.writer.AddMembers(ctx, kind, name, ids)
	if err != nil {
		return 0, fmt.Errorf("adding selected contacts to %s: %w", kind, err)
	}
	return added, nil
}

// ExportSelected writes the selected contacts in the named format.
func (s *Service) ExportSelected(w io.Writer, format string) (int, error) {
	selected := s.store.SelectedContacts()
	if len(selected) == 0 {
		return 0, ErrNothingSelected
	}
	exp, err := CreateExporter(format)
	if err != nil {
		return 0, err
	}
	if err := exp.Export(w, selected); err != nil {
		return 0, fmt.Errorf("exporting selected contacts: %w", err)
	}
	return len(selected), nil
}

// EditField writes one field of a contact and announces the change as an
// updated record event. Phone fields are normalized first.
func (s *Service) EditField(ctx context.Context, id, field, value string) error {
	if phoneFields[field] {
		number, ext := normalize.ParsePhoneWithExtension(value)
		value = normalize.Phone(number)
		if ext != "" {
			value += " x" + ext
		}
	}
	patch := contact.Patch{field: value}
	if err := s.writer.UpdateContactFields(ctx, id, patch); err != nil {
		return fmt.Errorf("editing %s: %w", field, err)
	}
	if s.bus == nil {
		s.store.MergeRecord(id, patch)
		s.store.Refilter()
		return nil
	}
	ev := livesync.RecordEvent{Type: livesync.RecordUpdated, ID: id, Payload: map[string]any{field: value}}
	if err := s.bus.Publish(ctx, ev); err != nil {
		return fmt.Errorf("announcing edit: %w", err)
	}
	return nil
}
