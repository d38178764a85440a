package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdxmph/people-tui/internal/contact"
	"github.com/pdxmph/people-tui/internal/livesync"
	"github.com/pdxmph/people-tui/internal/people"
)

// contactOrder is the collection order every read uses: newest first, ties
// broken by ID so batches never overlap.
const contactOrder = `ORDER BY created_at DESC, id`

// FetchAll returns every contact, newest first.
func (db *DB) FetchAll(ctx context.Context) ([]contact.Contact, error) {
	return db.Scoped().FetchAll(ctx)
}

// FetchTotalCount returns the number of contacts.
func (db *DB) FetchTotalCount(ctx context.Context) (int, error) {
	return db.Scoped().FetchTotalCount(ctx)
}

// FetchBatch returns up to limit contacts starting at offset, in collection
// order.
func (db *DB) FetchBatch(ctx context.Context, offset, limit int) (people.Batch, error) {
	return db.Scoped().FetchBatch(ctx, offset, limit)
}

// ListScope returns the contacts a scope covers.
func (db *DB) ListScope(ctx context.Context, scope livesync.Scope) ([]contact.Contact, error) {
	records, err := db.Scoped(scope).FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing contacts for %s: %w", scope, err)
	}
	return records, nil
}

// ScopedSource is the part of the collection covered by the union of a set
// of scopes. It reads in the same order as the whole collection.
type ScopedSource struct {
	db     *DB
	where  string
	args   []any
	scopes []livesync.Scope
}

// Scoped returns the collection limited to scopes. No scopes, or any
// ScopeAll among them, means every contact.
func (db *DB) Scoped(scopes ...livesync.Scope) *ScopedSource {
	s := &ScopedSource{db: db, scopes: scopes}
	var conds []string
	for _, scope := range scopes {
		switch scope.Kind {
		case livesync.ScopeOwned:
			conds = append(conds, `owner_id = ?`)
			s.args = append(s.args, scope.UserID)
		case livesync.ScopeAssigned:
			conds = append(conds, `assigned_to = ?`)
			s.args = append(s.args, scope.UserID)
		default:
			conds, s.args = nil, nil
			return s
		}
	}
	if len(conds) > 0 {
		s.where = `WHERE ` + strings.Join(conds, ` OR `) + ` `
	}
	return s
}

// Key names the scope set, for cache entries and logs.
func (s *ScopedSource) Key() string {
	if s.where == "" {
		return string(livesync.ScopeAll)
	}
	keys := make([]string, 0, len(s.scopes))
	for _, scope := range s.scopes {
		keys = append(keys, scope.String())
	}
	return strings.Join(keys, "+")
}

// FetchAll returns every contact in scope, newest first.
func (s *ScopedSource) FetchAll(ctx context.Context) ([]contact.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts ` + s.where + contactOrder
	return s.db.queryContacts(ctx, query, s.args...)
}

// FetchTotalCount returns the number of contacts in scope.
func (s *ScopedSource) FetchTotalCount(ctx context.Context) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM contacts ` + s.where
	if err := s.db.conn.QueryRowContext(ctx, query, s.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting contacts in %s: %w", s.Key(), err)
	}
	return n, nil
}

// FetchBatch returns up to limit contacts in scope starting at offset.
func (s *ScopedSource) FetchBatch(ctx context.Context, offset, limit int) (people.Batch, error) {
	if limit <= 0 {
		return people.Batch{}, nil
	}
	// One extra row tells whether another batch exists.
	query := `SELECT ` + contactColumns + ` FROM contacts ` + s.where + contactOrder + ` LIMIT ? OFFSET ?`
	args := append(append([]any(nil), s.args...), limit+1, max(offset, 0))
	records, err := s.db.queryContacts(ctx, query, args...)
	if err != nil {
		return people.Batch{}, fmt.Errorf("fetching batch: %w", err)
	}
	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}
	return people.Batch{Records: records, HasMore: hasMore}, nil
}

func (db *DB) queryContacts(ctx context.Context, query string, args ...any) ([]contact.Contact, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	var contacts []contact.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

// GetContact retrieves a single contact by ID
func (db *DB) GetContact(ctx context.Context, id string) (contact.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = ?`
	c, err := scanContact(db.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return contact.Contact{}, fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return contact.Contact{}, fmt.Errorf("getting contact: %w", err)
	}
	return c, nil
}

// AddContact inserts c, assigning an ID when it has none, and returns the
// stored contact.
func (db *DB) AddContact(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	query := `INSERT INTO contacts (` + contactColumns + `) VALUES (` + placeholders(25) + `)`
	if _, err := db.conn.ExecContext(ctx, query, contactArgs(c)...); err != nil {
		return contact.Contact{}, fmt.Errorf("inserting contact: %w", err)
	}
	db.logger.Debug("contact added", zap.String("id", c.ID))
	db.notifyChange()
	return db.GetContact(ctx, c.ID)
}

// UpsertContacts inserts or replaces contacts in one transaction and
// returns how many were written. Contacts without an ID get one.
func (db *DB) UpsertContacts(ctx context.Context, contacts []contact.Contact) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO contacts (` + contactColumns + `) VALUES (` + placeholders(25) + `)
		ON CONFLICT(id) DO UPDATE SET ` + excludedAssignments()
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range contacts {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, contactArgs(c)...); err != nil {
			return 0, fmt.Errorf("upserting contact %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing upsert: %w", err)
	}
	db.logger.Info("contacts upserted", zap.Int("count", len(contacts)))
	db.notifyChange()
	return len(contacts), nil
}

// UpdateContactFields writes the known fields of patch to one contact.
// Unknown keys are ignored.
func (db *DB) UpdateContactFields(ctx context.Context, id string, patch contact.Patch) error {
	keys := make([]string, 0, len(patch))
	for k := range patch {
		if _, ok := columnFor[k]; ok {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys)+1)
	args := make([]any, 0, len(keys)+1)
	patched := contact.Contact{}.Apply(patch)
	for _, k := range keys {
		sets = append(sets, columnFor[k]+" = ?")
		args = append(args, NewNullString(fieldString(patched, k)))
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := `UPDATE contacts SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	db.notifyChange()
	return nil
}

// DeleteContacts removes the contacts and their memberships. It returns the
// number of contacts deleted.
func (db *DB) DeleteContacts(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var deleted int64
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
		if err != nil {
			return 0, fmt.Errorf("deleting contact %s: %w", id, err)
		}
		n, _ := res.RowsAffected()
		deleted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing delete: %w", err)
	}
	db.logger.Info("contacts deleted", zap.Int64("count", deleted))
	db.notifyChange()
	return int(deleted), nil
}

// excludedAssignments takes every column except id and created_at from the
// incoming row.
func excludedAssignments() string {
	var sets []string
	for _, col := range strings.Split(contactColumns, ",") {
		col = strings.TrimSpace(col)
		if col == "id" || col == "created_at" {
			continue
		}
		sets = append(sets, col+" = excluded."+col)
	}
	return strings.Join(sets, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// fieldString reads the canonical field key from c.
func fieldString(c contact.Contact, key string) string {
	switch key {
	case "firstName":
		return c.FirstName
	case "lastName":
		return c.LastName
	case "name":
		return c.Name
	case "title":
		return c.Title
	case "companyName":
		return c.CompanyName
	case "email":
		return c.Email
	case "emailStatus":
		return c.EmailStatus
	case "mobile":
		return c.Mobile
	case "workDirectPhone":
		return c.WorkDirectPhone
	case "otherPhone":
		return c.OtherPhone
	case "preferredPhoneField":
		return c.PreferredPhoneField
	case "city":
		return c.City
	case "state":
		return c.State
	case "industry":
		return c.Industry
	case "seniority":
		return c.Seniority
	case "department":
		return c.Department
	case "accountId":
		return c.AccountID
	case "companyWebsite":
		return c.CompanyWebsite
	case "companyDomain":
		return c.CompanyDomain
	case "linkedinUrl":
		return c.LinkedinURL
	case "ownerId":
		return c.OwnerID
	case "assignedTo":
		return c.AssignedTo
	}
	return ""
}
