package db

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// RunMigrations applies any pending database migrations
func (db *DB) RunMigrations() error {
	if err := db.runOwnershipMigration(); err != nil {
		return err
	}

	if err := db.runMembershipMigration(); err != nil {
		return err
	}

	return nil
}

// runOwnershipMigration adds the columns scoped feeds filter on.
func (db *DB) runOwnershipMigration() error {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*)
		FROM pragma_table_info('contacts')
		WHERE name IN ('owner_id', 'assigned_to')
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking for ownership columns: %w", err)
	}

	if count < 2 {
		db.logger.Info("running migration: adding ownership columns")

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("starting transaction: %w", err)
		}
		defer tx.Rollback()

		_, err = tx.Exec(`ALTER TABLE contacts ADD COLUMN owner_id TEXT`)
		if err != nil && !isDuplicateColumn(err) {
			return fmt.Errorf("adding owner_id column: %w", err)
		}

		_, err = tx.Exec(`ALTER TABLE contacts ADD COLUMN assigned_to TEXT`)
		if err != nil && !isDuplicateColumn(err) {
			return fmt.Errorf("adding assigned_to column: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration: %w", err)
		}

		db.logger.Info("ownership migration completed")
	}

	return nil
}

// runMembershipMigration creates the sequence table, which the first
// schema did not have.
func (db *DB) runMembershipMigration() error {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*)
		FROM sqlite_master
		WHERE type = 'table' AND name = 'sequence_members'
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking for sequence table: %w", err)
	}

	if count == 0 {
		db.logger.Info("running migration: adding sequence membership table")

		_, err := db.conn.Exec(`
			CREATE TABLE IF NOT EXISTS sequence_members (
				sequence_name TEXT NOT NULL,
				contact_id TEXT NOT NULL,
				added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (sequence_name, contact_id),
				FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
			)
		`)
		if err != nil {
			return fmt.Errorf("creating sequence_members table: %w", err)
		}

		db.logger.Info("sequence migration completed", zap.String("path", db.path))
	}

	return nil
}

func isDuplicateColumn(err error) bool {
	return strings.Contains(err.Error(), "duplicate column name")
}
