package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, for log lines
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// HashFields hashes an ordered list of key/value pairs.
// Map-valued fields must be flattened by the caller with SortedPairs.
func HashFields(fields ...string) Hash {
	return NewHash([]byte(strings.Join(fields, "|")))
}

// SortedPairs renders a column-keyed map deterministically
func SortedPairs(m map[int]float64) string {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var data strings.Builder
	for i, k := range keys {
		if i > 0 {
			data.WriteByte(',')
		}
		data.WriteString(fmt.Sprintf("%d:%g", k, m[k]))
	}
	return data.String()
}
