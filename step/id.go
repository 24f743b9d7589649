package step

import (
	"crypto/sha1" //nolint:gosec // SHA-1 is the wire-level id format, not a security boundary
	"encoding/hex"
	"fmt"
)

// HashID computes the canonical hashed step id for a raw, user-visible step
// id. The result is the 40-character lowercase hex SHA-1 digest of rawID,
// used as the key into memoized step state and as the id of OutgoingOps.
//
// Collision disambiguation (appending ":1", ":2", ...) happens one layer up,
// at discovery time in Tools; HashID itself is a pure function of its input.
func HashID(rawID string) string {
	sum := sha1.Sum([]byte(rawID)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// disambiguate returns the raw id to hash for the n'th discovery of a given
// base raw id within a run. n == 0 returns base unchanged; n >= 1 appends
// ":n", matching the real Inngest SDK's UnhashedOp.Hash() suffixing scheme.
func disambiguate(base string, n int) string {
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s:%d", base, n)
}
