package engine

import (
	"context"

	"reach/workflowd/internal/domain"
	"reach/workflowd/internal/storage"
)

// ListTools returns every registered tool descriptor, ensuring the default
// set has been seeded.
func (e *Engine) ListTools(ctx context.Context) ([]domain.Tool, error) {
	if err := e.EnsureDefaultTools(ctx); err != nil {
		return nil, wrapStorageErr(err, "tool")
	}
	var out []domain.Tool
	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		out, err = q.ListTools(ctx)
		return err
	})
	if err != nil {
		return nil, wrapStorageErr(err, "tool")
	}
	return out, nil
}

// GetToolPermissions reads through the registry, returning a synthetic
// unknown descriptor for unregistered tool names rather than a 404.
func (e *Engine) GetToolPermissions(ctx context.Context, name string) (domain.Tool, error) {
	if err := e.EnsureDefaultTools(ctx); err != nil {
		return domain.Tool{}, wrapStorageErr(err, "tool")
	}
	var tool domain.Tool
	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		t, err := q.GetTool(ctx, name)
		if err == storage.ErrNotFound {
			tool = domain.UnknownTool(name)
			return nil
		}
		if err != nil {
			return err
		}
		tool = t
		return nil
	})
	if err != nil {
		return domain.Tool{}, wrapStorageErr(err, "tool")
	}
	return tool, nil
}

// SearchEvents is a thin read-through to storage's full-text/fallback search.
func (e *Engine) SearchEvents(ctx context.Context, sessionID, query string) ([]domain.Event, error) {
	if _, err := e.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	var events []domain.Event
	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		events, err = q.SearchEvents(ctx, sessionID, query)
		return err
	})
	if err != nil {
		return nil, wrapStorageErr(err, "session")
	}
	return events, nil
}

// ListArtifacts is a thin read-through to storage's artifact listing.
func (e *Engine) ListArtifacts(ctx context.Context, sessionID string) ([]domain.Artifact, error) {
	if _, err := e.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	var artifacts []domain.Artifact
	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		artifacts, err = q.ListArtifacts(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, wrapStorageErr(err, "session")
	}
	return artifacts, nil
}
