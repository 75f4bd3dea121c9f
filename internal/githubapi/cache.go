package githubapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

// DefaultCacheTTL bounds how long remote responses are reused.
const DefaultCacheTTL = 30 * time.Minute

const cacheBucket = "ghcache"

// Cache is a TTL response cache backed by bbolt. Keys are laid out as
// owner/name/op[/branch[/path]] so that clearing by repository is a prefix
// scan.
type Cache struct {
	db  *bbolt.DB
	ttl time.Duration
}

type cacheEntry struct {
	ExpiresAt time.Time       `json:"expires_at"`
	Payload   json.RawMessage `json:"payload"`
}

// OpenCache opens (or creates) the cache file. A zero ttl means
// DefaultCacheTTL.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cacheBucket))
		return err
	}); err != nil {
		_ = db.Close()

		return nil, err
	}

	return &Cache{db: db, ttl: ttl}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func cacheKey(owner, name, op string, extra ...string) string {
	parts := append([]string{owner, name, op}, extra...)
	return strings.Join(parts, "/")
}

// get loads a fresh entry into v; expired or missing entries report false.
func (c *Cache) get(key string, v any) bool {
	if c == nil {
		return false
	}

	var entry cacheEntry

	found := false

	_ = c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(cacheBucket)).Get([]byte(key))
		if data == nil {
			return nil
		}

		if err := json.Unmarshal(data, &entry); err != nil {
			return nil
		}

		found = true

		return nil
	})

	if !found || time.Now().After(entry.ExpiresAt) {
		return false
	}

	return json.Unmarshal(entry.Payload, v) == nil
}

// put stores v under key with the cache TTL.
func (c *Cache) put(key string, v any) {
	if c == nil {
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return
	}

	entry, err := json.Marshal(cacheEntry{
		ExpiresAt: time.Now().Add(c.ttl),
		Payload:   payload,
	})
	if err != nil {
		return
	}

	_ = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(cacheBucket)).Put([]byte(key), entry)
	})
}

// Clear drops cached entries. Owner/name scope the deletion; both empty wipes
// everything.
func (c *Cache) Clear(owner, name string) error {
	if c == nil {
		return nil
	}

	prefix := ""
	if owner != "" {
		prefix = owner + "/"

		if name != "" {
			prefix += name + "/"
		}
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(cacheBucket))

		cur := b.Cursor()

		var stale [][]byte

		for k, _ := cur.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, _ = cur.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}

		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}

		return nil
	})
}
