package bulk

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdxmph/people-tui/internal/contact"
	"github.com/pdxmph/people-tui/internal/db"
	"github.com/pdxmph/people-tui/internal/events"
	"github.com/pdxmph/people-tui/internal/livesync"
	"github.com/pdxmph/people-tui/internal/people"
)

type memSource struct{ records []contact.Contact }

func (m memSource) FetchAll(context.Context) ([]contact.Contact, error) {
	return append([]contact.Contact(nil), m.records...), nil
}
func (m memSource) FetchTotalCount(context.Context) (int, error) { return len(m.records), nil }
func (m memSource) FetchBatch(context.Context, int, int) (people.Batch, error) {
	return people.Batch{}, nil
}

type fakeWriter struct {
	deleted []string
	members map[string][]string
	patches map[string]contact.Patch
	err     error
}

func (f *fakeWriter) DeleteContacts(_ context.Context, ids []string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.deleted = append(f.deleted, ids...)
	return len(ids), nil
}

func (f *fakeWriter) AddMembers(_ context.Context, kind db.MembershipKind, name string, ids []string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.members == nil {
		f.members = make(map[string][]string)
	}
	key := string(kind) + ":" + name
	f.members[key] = append(f.members[key], ids...)
	return len(ids), nil
}

func (f *fakeWriter) UpdateContactFields(_ context.Context, id string, patch contact.Patch) error {
	if f.err != nil {
		return f.err
	}
	if f.patches == nil {
		f.patches = make(map[string]contact.Patch)
	}
	f.patches[id] = patch
	return nil
}

func sample() []contact.Contact {
	return []contact.Contact{
		{ID: "a", FirstName: "Ada", LastName: "Lovelace", Title: "Analyst", CompanyName: "Engines", Mobile: "+15035550100",
			CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{ID: "b", Name: "Grace Hopper", Email: "grace@navy.example", WorkDirectPhone: "+12065550101"},
		{ID: "c", FirstName: "Alan", LastName: "Turing", City: "Manchester"},
	}
}

func newStore(t *testing.T) *people.Store {
	t.Helper()
	s := people.New(memSource{records: sample()}, people.Options{PageSize: 10, Logger: zaptest.NewLogger(t)})
	require.NoError(t, s.Load(context.Background()))
	s.Wait()
	return s
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"csv", "json"}, ListFormats())

	_, err := CreateExporter("xlsx")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	r := NewRegistry()
	require.NoError(t, r.Register("csv", func() Exporter { return CSVExporter{} }))
	assert.Error(t, r.Register("csv", func() Exporter { return CSVExporter{} }))
}

func TestCSVExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSVExporter{}.Export(&buf, sample()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "Ada Lovelace", rows[1][1])
	assert.Equal(t, "+15035550100", rows[1][6])
	assert.Equal(t, "2024-01-02T03:04:05Z", rows[1][15])
	assert.Equal(t, "Grace Hopper", rows[2][1])
	assert.Equal(t, "", rows[3][15])
}

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONExporter{}.Export(&buf, sample()))

	var back []contact.Contact
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, sample(), back)

	buf.Reset()
	require.NoError(t, JSONExporter{}.Export(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestDeleteSelected(t *testing.T) {
	store := newStore(t)
	w := &fakeWriter{}
	svc := NewService(store, w, nil, zaptest.NewLogger(t))

	_, err := svc.DeleteSelected(context.Background())
	assert.ErrorIs(t, err, ErrNothingSelected)

	store.Toggle("a")
	store.Toggle("c")
	n, err := svc.DeleteSelected(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a", "c"}, w.deleted)
	assert.Empty(t, store.Selection())
	assert.Len(t, store.LoadedContacts(), 1)
}

func TestDeleteSelectedKeepsStoreOnWriteFailure(t *testing.T) {
	store := newStore(t)
	w := &fakeWriter{err: errors.New("locked")}
	svc := NewService(store, w, nil, nil)

	store.Toggle("b")
	_, err := svc.DeleteSelected(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"b"}, store.Selection())
	assert.Len(t, store.LoadedContacts(), 3)
}

func TestAddSelectedTo(t *testing.T) {
	store := newStore(t)
	w := &fakeWriter{}
	svc := NewService(store, w, nil, nil)

	store.SelectFirstN(2)
	n, err := svc.AddSelectedTo(context.Background(), db.KindSequence, "nurture")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a", "b"}, w.members["sequence:nurture"])
	assert.Len(t, store.Selection(), 2, "selection survives")
}

func TestExportSelected(t *testing.T) {
	store := newStore(t)
	svc := NewService(store, &fakeWriter{}, nil, nil)

	var buf bytes.Buffer
	_, err := svc.ExportSelected(&buf, "csv")
	assert.ErrorIs(t, err, ErrNothingSelected)

	store.Toggle("b")
	_, err = svc.ExportSelected(&buf, "pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	n, err := svc.ExportSelected(&buf, "json")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), "grace@navy.example")
}

func TestEditFieldNormalizesPhoneAndPublishes(t *testing.T) {
	store := newStore(t)
	w := &fakeWriter{}
	bus := events.NewBus[livesync.RecordEvent]()
	ch, unsub := bus.Subscribe(1)
	defer unsub()
	svc := NewService(store, w, bus, nil)

	require.NoError(t, svc.EditField(context.Background(), "c", "mobile", "(503) 555-0199 ext. 12"))
	assert.Equal(t, contact.Patch{"mobile": "+15035550199 x12"}, w.patches["c"])

	ev := <-ch
	assert.Equal(t, livesync.RecordUpdated, ev.Type)
	assert.Equal(t, "c", ev.ID)
	assert.Equal(t, "+15035550199 x12", ev.Payload["mobile"])
}

func TestEditFieldWithoutBusMergesDirectly(t *testing.T) {
	store := newStore(t)
	svc := NewService(store, &fakeWriter{}, nil, nil)

	require.NoError(t, svc.EditField(context.Background(), "a", "title", "Countess"))
	got, ok := store.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Countess", got.Title)
}
