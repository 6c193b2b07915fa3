package cache

import "time"

// BytesCache stores raw byte payloads under string keys with a TTL.
// Implementations are safe for concurrent use.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
