package shell

import (
	"crypto/rand"
	"encoding/hex"
)

// tokenPrefix is the fixed part of every completion token. The random
// per-call suffix is what prevents cross-call ambiguity; the prefix only
// makes the marker easy to recognize in a debugger.
const tokenPrefix = "__BASHAUTOM_END_"

// newToken returns a fresh completion token. Tokens are never reused
// across calls; a collision with command output would require the
// command to emit the 8 random bytes by accident.
func newToken() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the platform is broken
		panic(err)
	}
	return tokenPrefix + hex.EncodeToString(b[:])
}
