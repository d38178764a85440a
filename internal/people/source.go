package people

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/pdxmph/people-tui/internal/contact"
)

// Batch is one page of records from the remote collection.
type Batch struct {
	Records []contact.Contact
	HasMore bool
}

// Source is the remote contact collection.
type Source interface {
	// FetchAll returns every record the caller may see.
	FetchAll(ctx context.Context) ([]contact.Contact, error)

	// FetchTotalCount returns the size of the remote collection.
	FetchTotalCount(ctx context.Context) (int, error)

	// FetchBatch returns up to limit records starting at offset.
	FetchBatch(ctx context.Context, offset, limit int) (Batch, error)
}

// AccountLookup finds the account a contact belongs to, by account ID or by
// normalized company name. A miss is (nil, nil).
type AccountLookup interface {
	LookupAccount(ctx context.Context, accountID, companyName string) (*contact.Account, error)
}

// NoAccounts is the lookup used when no account data is available.
type NoAccounts struct{}

// LookupAccount always misses.
func (NoAccounts) LookupAccount(context.Context, string, string) (*contact.Account, error) {
	return nil, nil
}

// Cache is a best-effort persistent key/value store.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
}

// CachedSource answers FetchAll from a Cache when it can and fills the cache
// after a real fetch. Cache failures are logged and otherwise ignored.
type CachedSource struct {
	Source
	cache  Cache
	key    string
	logger *zap.Logger
}

// NewCachedSource wraps src. key names the cache entry holding the records.
func NewCachedSource(src Source, cache Cache, key string, logger *zap.Logger) *CachedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{Source: src, cache: cache, key: key, logger: logger}
}

// FetchAll returns the cached records, or fetches and caches them.
func (c *CachedSource) FetchAll(ctx context.Context) ([]contact.Contact, error) {
	if data, ok := c.cache.Get(c.key); ok && len(data) > 0 {
		var records []contact.Contact
		err := json.Unmarshal(data, &records)
		if err == nil {
			c.logger.Debug("bulk load served from cache", zap.String("key", c.key), zap.Int("records", len(records)))
			return records, nil
		}
		c.logger.Warn("discarding unreadable cache entry", zap.String("key", c.key), zap.Error(err))
	}

	records, err := c.Source.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	c.Put(records)
	return records, nil
}

// Put replaces the cached records. An entry that already holds the same
// encoding is left untouched, so a cache kept in the watched database does
// not wake the live feeds again.
func (c *CachedSource) Put(records []contact.Contact) {
	data, err := json.Marshal(records)
	if err != nil {
		c.logger.Warn("encoding cache entry", zap.Error(err))
		return
	}
	if old, ok := c.cache.Get(c.key); ok && bytes.Equal(old, data) {
		c.logger.Debug("cache entry unchanged", zap.String("key", c.key))
		return
	}
	if err := c.cache.Set(c.key, data); err != nil {
		c.logger.Warn("writing cache entry", zap.String("key", c.key), zap.Error(err))
	}
}

// Invalidate drops the cached records so the next FetchAll goes remote.
func (c *CachedSource) Invalidate() error {
	if err := c.cache.Set(c.key, nil); err != nil {
		return fmt.Errorf("invalidating cache entry %s: %w", c.key, err)
	}
	return nil
}
