package storage

import (
	"context"
	"database/sql"
	"time"

	"reach/workflowd/internal/domain"
)

func (q *Queries) CreateRun(ctx context.Context, r domain.Run) (int64, error) {
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO runs (session_id, plan_id, step_id, tool_name, status, needs_replan, failure_reason, output_json, duration_ms, started_at, finished_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.PlanID, r.StepID, r.ToolName, string(r.Status), boolToInt(r.NeedsReplan),
		nullableString(r.FailureReason), nullableString(r.Output), nullableInt64(r.DurationMS),
		nullableTime(r.StartedAt), nullableTime(r.FinishedAt), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) UpdateRun(ctx context.Context, r domain.Run) error {
	_, err := q.q.ExecContext(ctx, `
		UPDATE runs SET status=?, needs_replan=?, failure_reason=?, output_json=?, duration_ms=?, started_at=?, finished_at=?
		WHERE id=?`,
		string(r.Status), boolToInt(r.NeedsReplan), nullableString(r.FailureReason), nullableString(r.Output),
		nullableInt64(r.DurationMS), nullableTime(r.StartedAt), nullableTime(r.FinishedAt), r.ID)
	return err
}

func (q *Queries) GetRun(ctx context.Context, id int64) (domain.Run, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT id, session_id, plan_id, step_id, tool_name, status, needs_replan,
		       failure_reason, output_json, duration_ms, started_at, finished_at, created_at
		FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

func scanRun(row *sql.Row) (domain.Run, error) {
	var r domain.Run
	var status, created string
	var needsReplan int
	var failureReason, output sql.NullString
	var durationMS sql.NullInt64
	var startedAt, finishedAt sql.NullString
	err := row.Scan(&r.ID, &r.SessionID, &r.PlanID, &r.StepID, &r.ToolName, &status, &needsReplan,
		&failureReason, &output, &durationMS, &startedAt, &finishedAt, &created)
	if err == sql.ErrNoRows {
		return r, ErrNotFound
	}
	if err != nil {
		return r, err
	}
	r.Status = domain.WorkflowStatus(status)
	r.NeedsReplan = needsReplan != 0
	if failureReason.Valid {
		r.FailureReason = failureReason.String
	}
	if output.Valid {
		r.Output = output.String
	}
	if durationMS.Valid {
		d := durationMS.Int64
		r.DurationMS = &d
	}
	if startedAt.Valid {
		t, _ := time.Parse(timeLayout, startedAt.String)
		r.StartedAt = &t
	}
	if finishedAt.Valid {
		t, _ := time.Parse(timeLayout, finishedAt.String)
		r.FinishedAt = &t
	}
	r.CreatedAt, _ = time.Parse(timeLayout, created)
	return r, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}
