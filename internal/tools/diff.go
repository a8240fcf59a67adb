package tools

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

func sha256Hex(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// unifiedDiff builds a minimal unified diff of before/after, grounded on
// difflib.unified_diff's line-oriented output shape. It is not a general
// diff algorithm: it emits one hunk spanning the full file, which is
// sufficient for this engine's own round-trip (preview -> apply -> verify)
// and is never fed back through the hunk-application algorithm in
// write_ops.go.
func unifiedDiff(before, after, path string) string {
	if before == after {
		return ""
	}
	beforeLines := splitLines(before)
	afterLines := splitLines(after)

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n", path)
	fmt.Fprintf(&b, "+++ b/%s\n", path)
	fmt.Fprintf(&b, "@@ -1,%d +1,%d @@\n", len(beforeLines), len(afterLines))
	for _, l := range beforeLines {
		b.WriteString("-" + l + "\n")
	}
	for _, l := range afterLines {
		b.WriteString("+" + l + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
