// Package id provides unique identifier generation for storage entries.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// New returns a monotonic-prefixed token: a millisecond epoch timestamp
// followed by a random hex suffix. Encoding insertion order into the id
// lets lexicographic sort recover creation order without a separate index.
func New() string {
	return fmt.Sprintf("%013d-%s", time.Now().UnixMilli(), randomSuffix(6))
}

// randomSuffix returns n random bytes hex-encoded. A per-call random suffix
// is what guarantees uniqueness for ids generated within the same
// millisecond; callers issuing ids at a very high rate still get distinct
// tokens because the suffix space (2^48 for n=6) makes collision negligible.
func randomSuffix(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is effectively unrecoverable; fall back to a
		// counter-derived value rather than returning an empty id.
		return fallbackSuffix()
	}
	return hex.EncodeToString(b)
}

var (
	fallbackMu  sync.Mutex
	fallbackCtr uint64
)

func fallbackSuffix() string {
	fallbackMu.Lock()
	fallbackCtr++
	c := fallbackCtr
	fallbackMu.Unlock()
	return fmt.Sprintf("%012x", c)
}

// UUID returns a random (v4) UUID string, used for the live request
// record IDs that don't need to be lexicographically sortable.
func UUID() string {
	return uuid.NewString()
}
