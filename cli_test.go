package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdxmph/people-tui/internal/config"
	"github.com/pdxmph/people-tui/internal/contact"
	"github.com/pdxmph/people-tui/internal/db"
	"github.com/pdxmph/people-tui/internal/filter"
	"github.com/pdxmph/people-tui/internal/livesync"
	"github.com/pdxmph/people-tui/internal/people"
)

func TestDecodeRecords(t *testing.T) {
	data := []byte(`[
		{"id": "p1", "firstName": "Ada", "company": "Engines", "locationCity": "London"},
		{"fullName": "Grace Hopper", "workPhone": "+12065550101", "createdAt": "2024-03-01T10:00:00Z"}
	]`)

	got, err := decodeRecords(data)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, "Engines", got[0].CompanyName)
	assert.Equal(t, "London", got[0].City)

	assert.NotEmpty(t, got[1].ID)
	assert.Equal(t, "Grace Hopper", got[1].DisplayName())
	assert.Equal(t, "+12065550101", got[1].WorkDirectPhone)
	assert.Equal(t, 2024, got[1].CreatedAt.Year())

	_, err = decodeRecords([]byte(`{"id": "not-an-array"}`))
	assert.Error(t, err)
}

func TestCriteriaFromFlags(t *testing.T) {
	cr, err := criteriaFromFlags("ada", []string{"title=Analyst", "company = Engines"})
	require.NoError(t, err)
	assert.Equal(t, "ada", cr.Query)
	assert.Equal(t, []string{"Analyst"}, cr.Tokens.List(filter.Title).Tokens())
	assert.Equal(t, []string{"Engines"}, cr.Tokens.List(filter.Company).Tokens())

	matches := filter.Apply([]contact.Contact{
		{ID: "a", FirstName: "Ada", Title: "Analyst", CompanyName: "Engines"},
		{ID: "b", FirstName: "Ada", Title: "Admiral", CompanyName: "Engines"},
	}, &cr)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)

	_, err = criteriaFromFlags("", []string{"title"})
	assert.Error(t, err)
	_, err = criteriaFromFlags("", []string{"shoe-size=9"})
	assert.Error(t, err)
}

func TestScopesFor(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, []livesync.Scope{{Kind: livesync.ScopeAll}}, scopesFor(cfg))

	cfg.Sync.Scope = config.ScopeMine
	cfg.Sync.UserID = "u1"
	assert.Equal(t, []livesync.Scope{
		{Kind: livesync.ScopeOwned, UserID: "u1"},
		{Kind: livesync.ScopeAssigned, UserID: "u1"},
	}, scopesFor(cfg))
}

func TestImportRefreshesCachedLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.db")
	require.NoError(t, db.Initialize(path))
	logger := zaptest.NewLogger(t)
	database, err := db.Open(path, db.WithLogger(logger))
	require.NoError(t, err)
	defer database.Close()
	ctx := context.Background()

	scoped := database.Scoped(scopesFor(config.Default())...)
	cached := people.NewCachedSource(scoped, database, cachePrefix+scoped.Key(), logger)
	before, err := cached.FetchAll(ctx)
	require.NoError(t, err)
	require.Empty(t, before)
	require.NoError(t, database.Set(cachePrefix+scoped.Key(), []byte("[]")))

	n, err := importRecords(ctx, database, []contact.Contact{
		{ID: "p1", FirstName: "Ada"},
		{ID: "p2", FirstName: "Grace"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	after, err := cached.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, after, 2)
}
