package utils

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// KeyDigest returns a filesystem-safe hex digest of a cache key.
func KeyDigest(key string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}
