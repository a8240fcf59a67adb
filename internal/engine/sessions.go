package engine

import (
	"context"

	"reach/workflowd/internal/domain"
	"reach/workflowd/internal/storage"
	"reach/workflowd/internal/wferrors"
)

// CreateSession allocates a session id, ensures its workspace and artifact
// directories exist, and emits session_created.
func (e *Engine) CreateSession(ctx context.Context, goal string, mode domain.SessionMode, profile domain.SafetyProfile) (domain.Session, error) {
	if mode == "" {
		mode = domain.ModeNormal
	}
	if profile == "" {
		profile = domain.ProfileStrict
	}
	if mode != domain.ModeNormal && mode != domain.ModeDryRun {
		return domain.Session{}, wferrors.InvalidInput("mode", "mode must be 'normal' or 'dry_run'")
	}
	if profile != domain.ProfileStrict && profile != domain.ProfileDev {
		return domain.Session{}, wferrors.InvalidInput("safety_profile", "safety_profile must be 'strict' or 'dev'")
	}

	ts := now()
	session := domain.Session{
		ID:            newID("session"),
		Goal:          goal,
		Mode:          mode,
		SafetyProfile: profile,
		Status:        domain.StatusPending,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}

	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		if err := q.CreateSession(ctx, session); err != nil {
			return err
		}
		if err := e.workspace.EnsureSession(session.ID); err != nil {
			return err
		}
		return e.emitEvent(ctx, q, session.ID, nil, "session_created", "session created", map[string]any{
			"session_id": session.ID,
			"mode":       string(session.Mode),
		})
	})
	if err != nil {
		return domain.Session{}, wferrors.Wrap(err, wferrors.CodeInternal, "failed to create session")
	}
	return session, nil
}

// GetSession loads a session by id.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	var session domain.Session
	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		session, err = q.GetSession(ctx, sessionID)
		return err
	})
	if err != nil {
		return domain.Session{}, wrapStorageErr(err, "session")
	}
	return session, nil
}

// StopSession transitions the session to cancelled and emits
// session_stopped. Idempotent: calling it again on an already-cancelled
// session is a no-op.
func (e *Engine) StopSession(ctx context.Context, sessionID string) (domain.Session, error) {
	var session domain.Session
	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		session, err = q.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.Status == domain.StatusCancelled {
			return nil
		}
		session.Status = domain.StatusCancelled
		session.UpdatedAt = now()
		if err := q.UpdateSession(ctx, session); err != nil {
			return err
		}
		return e.emitEvent(ctx, q, sessionID, nil, "session_stopped", "session stopped", map[string]any{
			"session_id": sessionID,
		})
	})
	if err != nil {
		return domain.Session{}, wrapStorageErr(err, "session")
	}
	return session, nil
}
