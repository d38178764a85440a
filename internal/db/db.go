package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a contact does not exist.
var ErrNotFound = errors.New("not found")

// DefaultDebounce is how long change notifications are coalesced before
// subscribers get a fresh snapshot.
const DefaultDebounce = 200 * time.Millisecond

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(db *DB) {
		db.logger = l
	}
}

// WithDebounce sets how long change notifications are coalesced.
func WithDebounce(d time.Duration) Option {
	return func(db *DB) {
		if d > 0 {
			db.debounce = d
		}
	}
}

// DB wraps the database connection
type DB struct {
	conn     *sql.DB
	path     string
	logger   *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	watches map[int]*watch
	nextID  int
}

// Open creates a new database connection
func Open(dbPath string, opts ...Option) (*DB, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found at %s\nRun 'people init' to create it", dbPath)
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{
		conn:     conn,
		path:     dbPath,
		logger:   zap.NewNop(),
		debounce: DefaultDebounce,
		watches:  make(map[int]*watch),
	}
	for _, opt := range opts {
		opt(db)
	}
	db.logger = db.logger.Named("db")

	if err := db.RunMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Close stops every subscription and closes the database connection
func (db *DB) Close() error {
	db.mu.Lock()
	watches := db.watches
	db.watches = make(map[int]*watch)
	db.mu.Unlock()
	for _, w := range watches {
		w.stop()
	}
	return db.conn.Close()
}
