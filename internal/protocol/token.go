package protocol

import (
	"crypto/rand"
	"encoding/hex"
)

// TokenSize is the byte length of a StagelinQ identity token.
const TokenSize = 16

// Token identifies a protocol participant for the lifetime of its process.
type Token [TokenSize]byte

// NewToken generates a random identity token. The high bit of the first
// byte is forced to zero - hardware rejects tokens that violate this.
func NewToken() Token {
	var t Token
	// crypto/rand.Read does not fail on supported platforms
	_, _ = rand.Read(t[:])
	t[0] &= 0x7F
	return t
}

// IsZero reports whether the token is the all-zero value.
func (t Token) IsZero() bool {
	return t == Token{}
}

// String returns the token as lowercase hex for logging.
func (t Token) String() string {
	return hex.EncodeToString(t[:])
}
