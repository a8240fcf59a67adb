package tools

import (
	"strings"
	"testing"

	"reach/workflowd/internal/sandbox"
)

func sandboxReadIfExists(root, path string) (string, error) {
	return sandbox.ReadFileIfExists(root, path)
}

func writeSeed(root, path, content string) error {
	return sandbox.WriteFile(root, path, []byte(content))
}

func TestWriteFilePreviewDoesNotTouchDisk(t *testing.T) {
	root := t.TempDir()

	preview, err := WriteFilePreview(root, "notes.txt", "hello\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !preview.Changed {
		t.Fatal("expected a new file to be reported as changed")
	}
	data, err := sandboxReadIfExists(root, "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data != "" {
		t.Fatal("expected preview to leave the file unwritten")
	}
}

func TestWriteFileApplyRoundTrip(t *testing.T) {
	root := t.TempDir()

	preview, err := WriteFilePreview(root, "notes.txt", "hello\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	applied, err := WriteFileApply(root, "notes.txt", "hello\n", map[string]any{
		"path": preview.Path, "diff": preview.Diff, "new_sha256": preview.NewSHA256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied.Applied {
		t.Fatal("expected Applied=true after write_file_apply")
	}

	data, err := sandboxReadIfExists(root, "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data != "hello\n" {
		t.Fatalf("expected file content to be written, got %q", data)
	}
}

func TestWriteFileApplyRejectsStalePreview(t *testing.T) {
	root := t.TempDir()

	if _, err := WriteFileApply(root, "notes.txt", "first\n", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stalePreview, err := WriteFilePreview(root, "notes.txt", "second\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Now the file changes again underneath the stale preview.
	if _, err := WriteFileApply(root, "notes.txt", "third\n", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = WriteFileApply(root, "notes.txt", "second\n", map[string]any{
		"path": stalePreview.Path, "diff": stalePreview.Diff, "new_sha256": stalePreview.NewSHA256,
	})
	if _, ok := err.(*PreviewMismatchError); !ok {
		t.Fatalf("expected *PreviewMismatchError for a stale preview, got %v", err)
	}
}

func TestApplyPatchPreviewThenApply(t *testing.T) {
	root := t.TempDir()
	if err := writeSeed(root, "file.txt", "line1\nline2\nline3\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	patch := strings.Join([]string{
		"--- a/file.txt",
		"+++ b/file.txt",
		"@@ -1,3 +1,3 @@",
		" line1",
		"-line2",
		"+line2-changed",
		" line3",
		"",
	}, "\n")

	preview, err := ApplyPatch(root, patch, "preview", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if preview.Applied {
		t.Fatal("expected preview mode to leave Applied=false")
	}

	data, _ := sandboxReadIfExists(root, "file.txt")
	if !strings.Contains(data, "line2\n") {
		t.Fatal("expected preview mode to leave the file untouched")
	}

	applied, err := ApplyPatch(root, patch, "apply", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied.Applied {
		t.Fatal("expected apply mode to set Applied=true")
	}

	data, _ = sandboxReadIfExists(root, "file.txt")
	if !strings.Contains(data, "line2-changed\n") {
		t.Fatalf("expected the patched line to be written, got %q", data)
	}
}

func TestApplyPatchRejectsMultiFilePatch(t *testing.T) {
	root := t.TempDir()
	patch := strings.Join([]string{
		"--- a/one.txt",
		"+++ b/one.txt",
		"@@ -1,1 +1,1 @@",
		"-a",
		"+b",
		"--- a/two.txt",
		"+++ b/two.txt",
		"@@ -1,1 +1,1 @@",
		"-a",
		"+b",
		"",
	}, "\n")

	_, err := ApplyPatch(root, patch, "preview", nil)
	if err == nil {
		t.Fatal("expected an error for a multi-file patch")
	}
}

func TestApplyPatchRejectsFileDeletion(t *testing.T) {
	root := t.TempDir()
	patch := strings.Join([]string{
		"--- a/gone.txt",
		"+++ /dev/null",
		"@@ -1,1 +0,0 @@",
		"-a",
		"",
	}, "\n")

	_, err := ApplyPatch(root, patch, "preview", nil)
	if err == nil {
		t.Fatal("expected an error for a file-deletion patch")
	}
}
