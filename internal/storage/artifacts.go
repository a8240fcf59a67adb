package storage

import (
	"context"
	"time"

	"reach/workflowd/internal/domain"
)

func (q *Queries) InsertArtifact(ctx context.Context, a domain.Artifact) (int64, error) {
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO artifacts (session_id, run_id, step_id, kind, name, path, sha256, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.SessionID, a.RunID, a.StepID, a.Kind, a.Name, a.Path, a.SHA256, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) ListArtifacts(ctx context.Context, sessionID string) ([]domain.Artifact, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT id, session_id, run_id, step_id, kind, name, path, sha256, created_at
		FROM artifacts WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Artifact
	for rows.Next() {
		var a domain.Artifact
		var created string
		if err := rows.Scan(&a.ID, &a.SessionID, &a.RunID, &a.StepID, &a.Kind, &a.Name, &a.Path, &a.SHA256, &created); err != nil {
			return nil, err
		}
		a.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, a)
	}
	return out, rows.Err()
}
