package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aretw0/stash/pkg/domain"
)

// IDLength is the length of every session ID.
const IDLength = 40

var stripper = strings.NewReplacer("/", "", "+", "", "=", "")

// GenerateID returns a fresh random session ID.
// Safe for concurrent use.
func GenerateID() string {
	var b strings.Builder
	buf := make([]byte, IDLength*2)
	for b.Len() < IDLength {
		rand.Read(buf)
		b.WriteString(stripper.Replace(base64.StdEncoding.EncodeToString(buf)))
	}
	return b.String()[:IDLength]
}

// IsValidID reports whether id has exactly IDLength ASCII alphanumeric characters.
func IsValidID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

// ParseID validates id.
func ParseID(id string) (string, error) {
	if !IsValidID(id) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidSessionID, id)
	}
	return id, nil
}
