package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	updateBucket     = "updates"
	expiryValueBytes = 8
)

var errBucketMissing = errors.New("updates bucket missing")

// boltStore keeps update keys in a bbolt bucket, each mapped to its expiry
// as big-endian unix seconds.
type boltStore struct {
	db              *bolt.DB
	now             func() time.Time
	ttl             time.Duration
	cleanupInterval time.Duration

	mu          sync.Mutex
	lastCleanup time.Time
}

func openBolt(path string, opts Options) (*boltStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(updateBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{
		db:              db,
		now:             opts.Now,
		ttl:             opts.UpdateTTL,
		cleanupInterval: opts.CleanupInterval,
		lastCleanup:     opts.Now(),
	}, nil
}

func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SeenUpdate reports whether key was marked and has not expired yet. Expired
// keys found on the way are dropped.
func (b *boltStore) SeenUpdate(key string) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}

	now := b.now()
	if err := b.maybeCleanup(now); err != nil {
		return false, err
	}

	var seen bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(updateBucket))
		if bucket == nil {
			return errBucketMissing
		}
		value := bucket.Get([]byte(key))
		if value == nil {
			return nil
		}
		if expiry, ok := decodeExpiry(value); ok && expiry.After(now) {
			seen = true
			return nil
		}
		return bucket.Delete([]byte(key))
	})
	return seen, err
}

// MarkUpdate remembers key for the configured TTL.
func (b *boltStore) MarkUpdate(key string) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanup(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(updateBucket))
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.Put([]byte(key), encodeExpiry(now.Add(b.ttl)))
	})
}

// maybeCleanup sweeps expired keys at most once per cleanup interval.
func (b *boltStore) maybeCleanup(now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastCleanup) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(updateBucket))
		if bucket == nil {
			return errBucketMissing
		}
		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			if expiry, ok := decodeExpiry(v); !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup = now
	}
	return err
}

// count returns the number of stored keys, expired or not.
func (b *boltStore) count() (int, error) {
	var n int
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(updateBucket))
		if bucket == nil {
			return errBucketMissing
		}
		n = bucket.Stats().KeyN
		return nil
	})
	return n, err
}

func encodeExpiry(t time.Time) []byte {
	buf := make([]byte, expiryValueBytes)
	binary.BigEndian.PutUint64(buf, uint64(t.Unix()))
	return buf
}

func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) != expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
