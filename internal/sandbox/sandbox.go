// Package sandbox resolves tool-supplied paths against a session's workspace
// root and rejects any path that would escape it, grounded on the teacher's
// EnforcementLayer.ResolveWorkspacePath pattern.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrWorkspaceEscape is returned when a path resolves outside its workspace root.
type ErrWorkspaceEscape struct {
	Path string
}

func (e *ErrWorkspaceEscape) Error() string {
	return fmt.Sprintf("path escapes workspace boundary: %s", e.Path)
}

// ResolvePath cleans path, joins it under root, and verifies the result is
// still within root. A leading "/" is treated as workspace-relative, not as
// an absolute filesystem path, matching the original's posix-relative
// resolution. A path whose ".." segments climb above root is rejected with
// ErrWorkspaceEscape.
func ResolvePath(root, path string) (string, error) {
	clean := filepath.Clean(strings.TrimLeft(path, "/"))
	full := filepath.Join(root, clean)
	rel, err := filepath.Rel(root, full)
	if err != nil {
		return "", &ErrWorkspaceEscape{Path: path}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &ErrWorkspaceEscape{Path: path}
	}
	return full, nil
}

// ReadFile resolves path under root and reads it.
func ReadFile(root, path string) ([]byte, error) {
	full, err := ResolvePath(root, path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// WriteFile resolves path under root, creates parent directories on demand,
// and writes content atomically-enough for a single-writer daemon (write to
// the real path; the engine never runs two writers against one path
// concurrently, see spec §5).
func WriteFile(root, path string, content []byte) error {
	full, err := ResolvePath(root, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, content, 0o644)
}

// ReadFileIfExists returns the current content of path, or an empty string
// if the file does not yet exist (the two-phase write tools preview against
// a not-yet-created file).
func ReadFileIfExists(root, path string) (string, error) {
	full, err := ResolvePath(root, path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
