package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// invitationBytes gives 256 bits of entropy per token.
const invitationBytes = 32

// NewInvitation returns a random URL-safe invitation token and the hash
// under which it is stored.
func NewInvitation() (tok, hash string, err error) {
	b := make([]byte, invitationBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("read random: %w", err)
	}

	tok = base64.RawURLEncoding.EncodeToString(b)
	return tok, Hash(tok), nil
}

// Hash is the at-rest form of an invitation token.
func Hash(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}
