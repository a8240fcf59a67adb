package engine

import (
	"strings"

	"github.com/google/uuid"
)

// newID mirrors the original's uuid4().hex[:12] convention: a short,
// collision-resistant identifier derived from a random UUID's hex digits.
func newID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + raw[:12]
}
