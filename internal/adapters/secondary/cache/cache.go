package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Cache defines the interface for response caching operations.
type Cache interface {
	// Get retrieves the value stored under key.
	// Returns the value and true if found and not expired, nil and false otherwise.
	Get(key string) ([]byte, bool, error)

	// Put stores value under key until ttl elapses, replacing any prior entry.
	Put(key string, value []byte, ttl time.Duration) error
}

// Maintainer is a cache that can be cleaned up.
type Maintainer interface {
	Cache

	// Prune deletes expired entries and reports how many were removed.
	Prune() (int64, error)

	// Clear deletes every entry.
	Clear() error
}

// Key derives a deterministic cache key from an operation name and its
// arguments. Arguments must be JSON-serializable.
func Key(op string, args ...any) (string, error) {
	encoded, err := json.Marshal(args)
	if err != nil {
		return "", err
	}

	sum := sha256.New()
	sum.Write([]byte(op))
	sum.Write([]byte{0})
	sum.Write(encoded)

	return hex.EncodeToString(sum.Sum(nil)), nil
}
