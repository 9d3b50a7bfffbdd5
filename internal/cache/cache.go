package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ClassificationKey generates a cache key for one model call. Identical
// referral text sent to the same provider, model and prompt reuses the
// stored response; any attached image participates in the key.
func ClassificationKey(provider, model, system, user string, image []byte) string {
	h := sha256.New()
	for _, part := range []string{provider, model, system, user} {
		h.Write([]byte(part))
		h.Write([]byte{0}) // NUL separators keep adjacent fields from colliding
	}
	h.Write(image)
	return "urgentia:v1:" + hex.EncodeToString(h.Sum(nil))
}
