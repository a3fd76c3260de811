package clipstore

import (
	"fmt"
	"hash/fnv"
)

// contentHash computes the 64-bit content digest used to key a snip's
// content file and to find dedup candidates under KeepLast: equal bytes
// always produce equal hashes, and at 64 bits a collision between two
// different clips is astronomically unlikely for a session-local cache.
func contentHash(text string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text)) // hash.Hash.Write never errors.
	return h.Sum64()
}

// hashHex returns the lowercase 16-hex-digit content file name for hash.
func hashHex(hash uint64) string {
	return fmt.Sprintf("%016x", hash)
}
