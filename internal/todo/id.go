package todo

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultIDLength is the length of generated record ids.
const DefaultIDLength = 16

// RandomID returns n random hex characters (at most 32) taken from a v4 UUID.
func RandomID(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n <= 0 || n > len(s) {
		return s
	}
	return s[:n]
}
