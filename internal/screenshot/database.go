package screenshot

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "indexes"

// Cache defines the interface for memoizing built indexes by folder and
// timezone
type Cache interface {
	// Load returns the cached index and the fingerprint it was built from,
	// or a nil index when nothing is cached for the key
	Load(folder, timezone string) (*Index, string, error)

	// Store saves idx under its folder and timezone
	Store(idx *Index, fingerprint string) error

	// Close releases the cache
	Close() error
}

type cacheEntry struct {
	Fingerprint string `json:"fingerprint"`
	Index       *Index `json:"index"`
}

func cacheKey(folder, timezone string) []byte {
	return []byte(folder + "\x00" + timezone)
}

// BoltCache implements the Cache interface using BoltDB
type BoltCache struct {
	db *bbolt.DB
}

// NewBoltCache opens or creates the cache file at path
func NewBoltCache(path string) (*BoltCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltCache{db: db}, nil
}

// Load retrieves an index by folder and timezone
func (b *BoltCache) Load(folder, timezone string) (*Index, string, error) {
	var entry cacheEntry
	var found bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get(cacheKey(folder, timezone))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, "", fmt.Errorf("loading cached index: %w", err)
	}
	if !found {
		return nil, "", nil
	}
	return entry.Index, entry.Fingerprint, nil
}

// Store saves an index to the database
func (b *BoltCache) Store(idx *Index, fingerprint string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(cacheEntry{Fingerprint: fingerprint, Index: idx})
		if err != nil {
			return fmt.Errorf("marshaling index: %w", err)
		}
		return tx.Bucket([]byte(bucketName)).Put(cacheKey(idx.Folder, idx.Timezone), data)
	})
}

// Close closes the database connection
func (b *BoltCache) Close() error {
	return b.db.Close()
}

// MemoryCache keeps indexes for the lifetime of the process. It is used
// when no cache file is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]cacheEntry)}
}

func (m *MemoryCache) Load(folder, timezone string) (*Index, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[string(cacheKey(folder, timezone))]
	if !ok {
		return nil, "", nil
	}
	return e.Index, e.Fingerprint, nil
}

func (m *MemoryCache) Store(idx *Index, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[string(cacheKey(idx.Folder, idx.Timezone))] = cacheEntry{Fingerprint: fingerprint, Index: idx}
	return nil
}

func (m *MemoryCache) Close() error { return nil }
