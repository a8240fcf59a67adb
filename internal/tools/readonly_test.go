package tools

import (
	"context"
	"testing"
)

func TestReadFileReadsWorkspaceRelativePath(t *testing.T) {
	root := t.TempDir()
	if err := writeSeed(root, "a.txt", "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content, err := ReadFile(root, "a.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "hi" {
		t.Fatalf("got %q", content)
	}
}

func TestListDirSortsEntriesByName(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", "c.txt"} {
		if err := writeSeed(root, name, "x"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	entries, err := ListDir(root, ".")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Name != "a.txt" || entries[1].Name != "b.txt" || entries[2].Name != "c.txt" {
		t.Fatalf("expected sorted order, got %+v", entries)
	}
}

func TestListDirRejectsFileTarget(t *testing.T) {
	root := t.TempDir()
	if err := writeSeed(root, "a.txt", "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ListDir(root, "a.txt"); err == nil {
		t.Fatal("expected an error listing a non-directory path")
	}
}

func TestRunShellReadonlyAllowsAllowlistedCommand(t *testing.T) {
	root := t.TempDir()
	if err := writeSeed(root, "a.txt", "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := RunShellReadonly(context.Background(), root, "ls", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr=%s)", result.ExitCode, result.Stderr)
	}
}

func TestRunShellReadonlyRejectsNonAllowlistedCommand(t *testing.T) {
	root := t.TempDir()
	if _, err := RunShellReadonly(context.Background(), root, "rm -rf /", 5); err == nil {
		t.Fatal("expected an error for a non-allowlisted command")
	}
}

func TestRunShellReadonlyMatchesMultiTokenPrefix(t *testing.T) {
	if !tokensMatchAllowlist([]string{"git", "status", "--short"}) {
		t.Fatal("expected a multi-token allowlist prefix to match a longer command")
	}
	if tokensMatchAllowlist([]string{"git", "push"}) {
		t.Fatal("expected git push to be rejected")
	}
}
