package storage

import (
	"context"
	"database/sql"
	"time"

	"reach/workflowd/internal/domain"
)

const timeLayout = time.RFC3339Nano

func (q *Queries) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO sessions (id, goal, mode, safety_profile, status, plan_version, needs_replan, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Goal, string(s.Mode), string(s.SafetyProfile), string(s.Status),
		nullableInt(s.PlanVersion), boolToInt(s.NeedsReplan),
		s.CreatedAt.UTC().Format(timeLayout), s.UpdatedAt.UTC().Format(timeLayout))
	return err
}

func (q *Queries) GetSession(ctx context.Context, id string) (domain.Session, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT id, goal, mode, safety_profile, status, plan_version, needs_replan, created_at, updated_at
		FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

func (q *Queries) UpdateSession(ctx context.Context, s domain.Session) error {
	_, err := q.q.ExecContext(ctx, `
		UPDATE sessions SET goal=?, mode=?, safety_profile=?, status=?, plan_version=?, needs_replan=?, updated_at=?
		WHERE id=?`,
		s.Goal, string(s.Mode), string(s.SafetyProfile), string(s.Status),
		nullableInt(s.PlanVersion), boolToInt(s.NeedsReplan), s.UpdatedAt.UTC().Format(timeLayout), s.ID)
	return err
}

func scanSession(row *sql.Row) (domain.Session, error) {
	var s domain.Session
	var mode, profile, status, created, updated string
	var planVersion sql.NullInt64
	var needsReplan int
	err := row.Scan(&s.ID, &s.Goal, &mode, &profile, &status, &planVersion, &needsReplan, &created, &updated)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	s.Mode = domain.SessionMode(mode)
	s.SafetyProfile = domain.SafetyProfile(profile)
	s.Status = domain.WorkflowStatus(status)
	s.NeedsReplan = needsReplan != 0
	if planVersion.Valid {
		v := int(planVersion.Int64)
		s.PlanVersion = &v
	}
	s.CreatedAt, _ = time.Parse(timeLayout, created)
	s.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return s, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
