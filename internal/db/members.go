package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrUnknownMembership is returned for a membership kind with no table.
var ErrUnknownMembership = errors.New("unknown membership kind")

// MembershipKind names a collection contacts can be added to.
type MembershipKind string

const (
	KindList     MembershipKind = "list"
	KindSequence MembershipKind = "sequence"
)

func (k MembershipKind) table() (table, nameColumn string, err error) {
	switch k {
	case KindList:
		return "list_members", "list_name", nil
	case KindSequence:
		return "sequence_members", "sequence_name", nil
	}
	return "", "", fmt.Errorf("%q: %w", k, ErrUnknownMembership)
}

// AddMembers adds contacts to the named list or sequence and returns how
// many were not already members.
func (db *DB) AddMembers(ctx context.Context, kind MembershipKind, name string, ids []string) (int, error) {
	table, nameCol, err := kind.table()
	if err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("adding to %s: empty name", kind)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT OR IGNORE INTO ` + table + ` (` + nameCol + `, contact_id) VALUES (?, ?)`
	var added int64
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, query, name, id)
		if err != nil {
			return 0, fmt.Errorf("adding %s to %s %q: %w", id, kind, name, err)
		}
		n, _ := res.RowsAffected()
		added += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing membership: %w", err)
	}
	db.logger.Info("members added", zap.String("kind", string(kind)), zap.String("name", name), zap.Int64("added", added))
	return int(added), nil
}

// Members returns the contact IDs in the named list or sequence, oldest
// first.
func (db *DB) Members(ctx context.Context, kind MembershipKind, name string) ([]string, error) {
	table, nameCol, err := kind.table()
	if err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT contact_id FROM `+table+` WHERE `+nameCol+` = ? ORDER BY added_at, contact_id`, name)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
