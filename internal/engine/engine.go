// Package engine implements the orchestration engine (spec §4.5): the
// session/plan/step/run lifecycle, the preview-gate and dry_run policies,
// reference resolution before tool invocation, and session-status roll-up.
// Every public method that changes state runs inside exactly one storage
// transaction; ListTools, GetToolPermissions, SearchEvents and ListArtifacts
// run a seeding or session-lookup transaction before their read transaction.
package engine

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"reach/workflowd/internal/domain"
	"reach/workflowd/internal/refresolve"
	"reach/workflowd/internal/storage"
	"reach/workflowd/internal/tools"
	"reach/workflowd/internal/wferrors"
	"reach/workflowd/internal/workspace"
)

// Engine is the single entry point orchestrating storage, the per-session
// workspace tree, and the tool registry/executor.
type Engine struct {
	store     *storage.Store
	workspace *workspace.Manager
	registry  *tools.Registry
	executor  *tools.Executor
	log       *zap.Logger
}

func New(store *storage.Store, ws *workspace.Manager, log *zap.Logger) *Engine {
	registry := tools.NewRegistry()
	return &Engine{
		store:     store,
		workspace: ws,
		registry:  registry,
		executor:  tools.NewExecutor(registry),
		log:       log,
	}
}

// EnsureDefaultTools idempotently seeds the six default tool descriptors
// (spec §4.3's table). Safe to call on every boot.
func (e *Engine) EnsureDefaultTools(ctx context.Context) error {
	return e.store.WithTx(ctx, func(q *storage.Queries) error {
		for _, d := range tools.DefaultDescriptors {
			if err := q.UpsertToolIfAbsent(ctx, domain.Tool{
				Name:              d.Name,
				PermissionProfile: d.PermissionProfile,
				Description:       d.Description,
				Enabled:           true,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) emitEvent(ctx context.Context, q *storage.Queries, sessionID string, runID *int64, eventType, summary string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = q.InsertEvent(ctx, domain.Event{
		SessionID:   sessionID,
		RunID:       runID,
		EventType:   eventType,
		Summary:     summary,
		PayloadText: string(body),
		Source:      "engine",
	})
	return err
}

// runLookupFor adapts storage's MostRecentSucceededRunByStepKey to the
// refresolve.RunLookup contract used by reference resolution.
func runLookupFor(q *storage.Queries) refresolve.RunLookup {
	return func(ctx context.Context, sessionID, stepKey string) (string, bool, error) {
		run, err := q.MostRecentSucceededRunByStepKey(ctx, sessionID, stepKey)
		if err == storage.ErrNotFound {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return run.Output, true, nil
	}
}

func now() time.Time { return time.Now().UTC() }

// wrapStorageErr turns a bare storage.ErrNotFound into a domain NotFound
// error naming the entity; other errors pass through as internal failures.
func wrapStorageErr(err error, entity string) error {
	if err == nil {
		return nil
	}
	if err == storage.ErrNotFound {
		return wferrors.NotFound(entity)
	}
	return wferrors.Wrap(err, wferrors.CodeInternal, "storage operation failed")
}
