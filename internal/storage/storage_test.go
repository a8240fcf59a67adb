package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"reach/workflowd/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "workflowd.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("expected a second Migrate call to be a no-op, got %v", err)
	}
}

func TestCreateAndGetSessionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()
	session := domain.Session{
		ID: "sess-1", Goal: "demo", Mode: domain.ModeNormal, SafetyProfile: domain.ProfileStrict,
		Status: domain.StatusPending, CreatedAt: now, UpdatedAt: now,
	}
	if err := store.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := store.GetSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Goal != "demo" || got.Mode != domain.ModeNormal || got.SafetyProfile != domain.ProfileStrict {
		t.Fatalf("got %+v", got)
	}
}

func TestGetSessionMissingReturnsErrNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetSession(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateSessionPersistsChanges(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()
	session := domain.Session{
		ID: "sess-1", Goal: "demo", Mode: domain.ModeNormal, SafetyProfile: domain.ProfileStrict,
		Status: domain.StatusPending, CreatedAt: now, UpdatedAt: now,
	}
	if err := store.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	session.Status = domain.StatusRunning
	session.UpdatedAt = now.Add(time.Minute)
	if err := store.UpdateSession(context.Background(), session); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	got, err := store.GetSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Status != domain.StatusRunning {
		t.Fatalf("expected updated status, got %s", got.Status)
	}
}

func TestUpsertToolIfAbsentIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	tool := domain.Tool{Name: "list_dir", PermissionProfile: "workspace_read", Description: "list", Enabled: true}
	if err := store.UpsertToolIfAbsent(context.Background(), tool); err != nil {
		t.Fatalf("UpsertToolIfAbsent: %v", err)
	}
	if err := store.UpsertToolIfAbsent(context.Background(), domain.Tool{
		Name: "list_dir", PermissionProfile: "different", Description: "changed", Enabled: false,
	}); err != nil {
		t.Fatalf("second UpsertToolIfAbsent: %v", err)
	}

	got, err := store.GetTool(context.Background(), "list_dir")
	if err != nil {
		t.Fatalf("GetTool: %v", err)
	}
	if got.PermissionProfile != "workspace_read" {
		t.Fatalf("expected the first insert to win, got %+v", got)
	}
}

func TestListToolsOrdersByName(t *testing.T) {
	store := newTestStore(t)
	for _, name := range []string{"write_file_apply", "apply_patch", "list_dir"} {
		if err := store.UpsertToolIfAbsent(context.Background(), domain.Tool{Name: name, PermissionProfile: "x", Enabled: true}); err != nil {
			t.Fatalf("UpsertToolIfAbsent(%s): %v", name, err)
		}
	}
	tools, err := store.ListTools(context.Background())
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools) != 3 || tools[0].Name != "apply_patch" || tools[1].Name != "list_dir" || tools[2].Name != "write_file_apply" {
		t.Fatalf("expected alphabetical order, got %+v", tools)
	}
}

func TestInsertEventThenSearchWithoutQueryReturnsIt(t *testing.T) {
	store := newTestStore(t)
	session := domain.Session{ID: "sess-1", Status: domain.StatusPending, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := store.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if _, err := store.InsertEvent(context.Background(), domain.Event{
		SessionID: "sess-1", EventType: "session_created", Summary: "created session", Source: "engine",
	}); err != nil {
		t.Fatalf("InsertEvent: %v", err)
	}

	events, err := store.SearchEvents(context.Background(), "sess-1", "")
	if err != nil {
		t.Fatalf("SearchEvents: %v", err)
	}
	if len(events) != 1 || events[0].EventType != "session_created" {
		t.Fatalf("got %+v", events)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	sentinel := context.Canceled

	err := store.WithTx(context.Background(), func(q *Queries) error {
		if err := q.CreateSession(context.Background(), domain.Session{
			ID: "sess-rollback", Status: domain.StatusPending, CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}); err != nil {
			return err
		}
		return sentinel
	})
	if err != sentinel {
		t.Fatalf("expected the sentinel error to propagate, got %v", err)
	}

	if _, err := store.GetSession(context.Background(), "sess-rollback"); err != ErrNotFound {
		t.Fatalf("expected the transaction to roll back, got %v", err)
	}
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	store := newTestStore(t)
	err := store.WithTx(context.Background(), func(q *Queries) error {
		return q.CreateSession(context.Background(), domain.Session{
			ID: "sess-commit", Status: domain.StatusPending, CreatedAt: time.Now(), UpdatedAt: time.Now(),
		})
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if _, err := store.GetSession(context.Background(), "sess-commit"); err != nil {
		t.Fatalf("expected the committed session to be visible, got %v", err)
	}
}
