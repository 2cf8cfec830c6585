package diagram

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Digest canonicalizes a diagram's source lines into a stable content hash.
//
// The lines are joined without separators and the joined blob is stripped of
// leading and trailing whitespace before hashing, so two diagrams that differ
// only in surrounding blank space share a cache entry. Internal whitespace is
// significant. The hash is 128 bits, hex-encoded, and doubles as the cache
// filename stem.
func Digest(lines []string) string {
	blob := strings.TrimSpace(strings.Join(lines, ""))
	sum := md5.Sum([]byte(blob))
	return hex.EncodeToString(sum[:])
}
