package tools

import (
	"context"
	"testing"
	"time"
)

func TestExecutorSucceedsAndSynthesizesArtifact(t *testing.T) {
	root := t.TempDir()
	if err := writeSeed(root, "a.txt", "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ex := NewExecutor(NewRegistry())
	result := ex.Execute(context.Background(), "read_file", root, map[string]any{"path": "a.txt"}, 5)
	if result.Status != "succeeded" {
		t.Fatalf("expected succeeded, got %s (error=%s)", result.Status, result.Error)
	}
	if result.Artifact == nil || len(result.Artifact.Content) == 0 {
		t.Fatal("expected a synthesized artifact on success")
	}
}

func TestExecutorUnknownToolFails(t *testing.T) {
	ex := NewExecutor(NewRegistry())
	result := ex.Execute(context.Background(), "no_such_tool", t.TempDir(), nil, 5)
	if result.Status != "failed" {
		t.Fatalf("expected failed, got %s", result.Status)
	}
}

func TestExecutorTimesOutSlowHandler(t *testing.T) {
	reg := NewRegistry()
	ex := &Executor{registry: &Registry{handlers: map[string]Handler{
		"slow": func(ctx context.Context, inputs map[string]any) (any, error) {
			select {
			case <-time.After(2 * time.Second):
				return "done", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}}}
	_ = reg

	result := ex.Execute(context.Background(), "slow", t.TempDir(), nil, 1)
	if result.Status != "failed" {
		t.Fatalf("expected the slow handler to time out as failed, got %s", result.Status)
	}
}

func TestExecutorInjectsWorkspaceRootWhenAbsent(t *testing.T) {
	root := t.TempDir()
	if err := writeSeed(root, "a.txt", "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var capturedRoot string
	reg := &Registry{handlers: map[string]Handler{
		"capture": func(ctx context.Context, inputs map[string]any) (any, error) {
			capturedRoot, _ = inputs["workspace_root"].(string)
			return "ok", nil
		},
	}}
	ex := NewExecutor(reg)
	ex.Execute(context.Background(), "capture", root, nil, 5)
	if capturedRoot != root {
		t.Fatalf("expected workspace_root=%q injected, got %q", root, capturedRoot)
	}
}
