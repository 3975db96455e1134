// Package utils holds the 64 bit fingerprints used to key compiled
// statements, syntax trees and tracked entities.
package utils

import (
	"encoding/binary"
	"hash/fnv"
)

// U64 is the fnv64a hash of s.
func U64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// Mix64 folds b into a. The result depends on argument order.
func Mix64(a, b uint64) uint64 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], a)
	binary.BigEndian.PutUint64(buf[8:], b)
	h := fnv.New64a()
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

// Fingerprint keys a compiled statement by the dialect it targets and its source text.
func Fingerprint(dialect, source string) uint64 {
	return Mix64(U64(dialect), U64(source))
}

// EntityID is the identity-map key of an entity: fnv64a over "class:pk".
func EntityID(class, primaryKey string) uint64 {
	return U64(class + ":" + primaryKey)
}
