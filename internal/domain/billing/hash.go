package billing

import (
	"crypto/rand"
	"encoding/hex"
)

// hashBytes yields a 20-character hex hash, short enough for share links
// and long enough that collisions are not a practical concern.
const hashBytes = 10

// NewUniqueHash returns a random opaque identifier used for public share
// links. It carries no information about the document it names.
func NewUniqueHash() string {
	b := make([]byte, hashBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failure means the platform RNG is broken; there is
		// no usable fallback.
		panic(err)
	}
	return hex.EncodeToString(b)
}
