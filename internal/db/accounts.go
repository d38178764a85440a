package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pdxmph/people-tui/internal/contact"
	"github.com/pdxmph/people-tui/internal/normalize"
)

const accountColumns = `id, name, employees, website, domain, linkedin_url`

// LookupAccount finds an account by ID, or failing that by normalized
// company name. A miss returns (nil, nil).
func (db *DB) LookupAccount(ctx context.Context, accountID, companyName string) (*contact.Account, error) {
	if accountID != "" {
		a, err := db.queryAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, accountID)
		if err != nil || a != nil {
			return a, err
		}
	}
	key := normalize.String(companyName)
	if key == "" {
		return nil, nil
	}
	return db.queryAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE name_key = ? ORDER BY id LIMIT 1`, key)
}

func (db *DB) queryAccount(ctx context.Context, query string, arg string) (*contact.Account, error) {
	var a contact.Account
	var employees, website, domain, linkedin sql.NullString
	err := db.conn.QueryRowContext(ctx, query, arg).Scan(&a.ID, &a.Name, &employees, &website, &domain, &linkedin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up account: %w", err)
	}
	a.Employees = employees.String
	a.Website = website.String
	a.Domain = domain.String
	a.LinkedinURL = linkedin.String
	return &a, nil
}

// AddAccount inserts or replaces an account, assigning an ID when it has
// none.
func (db *DB) AddAccount(ctx context.Context, a contact.Account) (contact.Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO accounts (id, name, name_key, employees, website, domain, linkedin_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, name_key = excluded.name_key, employees = excluded.employees,
			website = excluded.website, domain = excluded.domain, linkedin_url = excluded.linkedin_url
	`, a.ID, a.Name, normalize.String(a.Name),
		NewNullString(a.Employees), NewNullString(a.Website), NewNullString(a.Domain), NewNullString(a.LinkedinURL))
	if err != nil {
		return contact.Account{}, fmt.Errorf("inserting account: %w", err)
	}
	return a, nil
}
