package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash returns the hex SHA-256 of data. Module fingerprints, snapshot
// hashes and file cache paths all use it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// keyOf joins prefix with the hash of parts. Parts are NUL-separated so
// ("a", "bc") and ("ab", "c") differ; entry order is kept since it is
// significant to a build.
func keyOf(prefix string, parts ...string) string {
	return prefix + ":" + Hash([]byte(strings.Join(parts, "\x00")))
}
