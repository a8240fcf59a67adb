package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"reach/workflowd/internal/domain"
)

// UpsertPlan inserts the (session_id, version) plan row or replaces its
// scalar fields if it already exists, returning the plan's surrogate id.
func (q *Queries) UpsertPlan(ctx context.Context, p domain.Plan) (int64, error) {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO plans (session_id, version, title, session_goal, raw_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, version) DO UPDATE SET
			title = excluded.title,
			session_goal = excluded.session_goal,
			raw_text = excluded.raw_text`,
		p.SessionID, p.Version, p.Title, p.SessionGoal, p.RawText, p.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	row := q.q.QueryRowContext(ctx, `SELECT id FROM plans WHERE session_id = ? AND version = ?`, p.SessionID, p.Version)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// ReplaceSteps deletes all existing steps of planID and inserts the given
// ones in order, matching ImportPlan's "deletes and re-inserts ... order
// preserved" contract.
func (q *Queries) ReplaceSteps(ctx context.Context, planID int64, steps []domain.Step) error {
	if _, err := q.q.ExecContext(ctx, `DELETE FROM steps WHERE plan_id = ?`, planID); err != nil {
		return err
	}
	for i, st := range steps {
		payload, err := json.Marshal(map[string]any{
			"inputs":      st.Inputs,
			"timeout_sec": st.TimeoutSec,
		})
		if err != nil {
			return err
		}
		_, err = q.q.ExecContext(ctx, `
			INSERT INTO steps (plan_id, step_key, title, tool_name, status, risk, payload_json, ordinal, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			planID, st.StepKey, st.Title, st.ToolName, string(st.Status), string(st.Risk),
			string(payload), i, st.CreatedAt.UTC().Format(timeLayout))
		if err != nil {
			return err
		}
	}
	return nil
}

func (q *Queries) GetPlan(ctx context.Context, sessionID string, version int) (domain.Plan, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT id, session_id, version, title, session_goal, raw_text, created_at
		FROM plans WHERE session_id = ? AND version = ?`, sessionID, version)
	p, err := scanPlan(row)
	if err != nil {
		return p, err
	}
	steps, err := q.listSteps(ctx, p.ID)
	if err != nil {
		return p, err
	}
	p.Steps = steps
	return p, nil
}

func scanPlan(row *sql.Row) (domain.Plan, error) {
	var p domain.Plan
	var sessionGoal sql.NullString
	var created string
	err := row.Scan(&p.ID, &p.SessionID, &p.Version, &p.Title, &sessionGoal, &p.RawText, &created)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if sessionGoal.Valid {
		p.SessionGoal = &sessionGoal.String
	}
	p.CreatedAt, _ = time.Parse(timeLayout, created)
	return p, nil
}

func (q *Queries) listSteps(ctx context.Context, planID int64) ([]domain.Step, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT id, plan_id, step_key, title, tool_name, status, risk, payload_json, ordinal, created_at
		FROM steps WHERE plan_id = ? ORDER BY ordinal`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Step
	for rows.Next() {
		st, err := scanStepRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStepRow(rows rowScanner) (domain.Step, error) {
	var st domain.Step
	var status, risk, payload, created string
	if err := rows.Scan(&st.ID, &st.PlanID, &st.StepKey, &st.Title, &st.ToolName, &status, &risk, &payload, &st.Ordinal, &created); err != nil {
		return st, err
	}
	st.Status = domain.WorkflowStatus(status)
	st.Risk = domain.Risk(risk)
	st.CreatedAt, _ = time.Parse(timeLayout, created)
	var decoded struct {
		Inputs     map[string]any `json:"inputs"`
		TimeoutSec int            `json:"timeout_sec"`
	}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return st, err
	}
	st.Inputs = decoded.Inputs
	st.TimeoutSec = decoded.TimeoutSec
	return st, nil
}

// GetStep loads a step by its external step_key, scoped to the session's
// current plan version (sessions.plan_version), the way a caller following
// step_key's per-plan UNIQUE constraint must resolve it: step_key alone is
// ambiguous across a session's historical plan versions, but unique within
// "the" plan a session is currently running.
func (q *Queries) GetStep(ctx context.Context, sessionID, stepKey string) (domain.Step, domain.Plan, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT s.id, s.plan_id, s.step_key, s.title, s.tool_name, s.status, s.risk, s.payload_json, s.ordinal, s.created_at,
		       p.id, p.session_id, p.version, p.title, p.session_goal, p.raw_text, p.created_at
		FROM steps s
		JOIN plans p ON p.id = s.plan_id
		JOIN sessions sess ON sess.id = p.session_id AND sess.plan_version = p.version
		WHERE s.step_key = ? AND p.session_id = ?`, stepKey, sessionID)

	var st domain.Step
	var p domain.Plan
	var status, risk, payload, stepCreated string
	var sessionGoal sql.NullString
	var planCreated string
	err := row.Scan(
		&st.ID, &st.PlanID, &st.StepKey, &st.Title, &st.ToolName, &status, &risk, &payload, &st.Ordinal, &stepCreated,
		&p.ID, &p.SessionID, &p.Version, &p.Title, &sessionGoal, &p.RawText, &planCreated,
	)
	if err == sql.ErrNoRows {
		return st, p, ErrNotFound
	}
	if err != nil {
		return st, p, err
	}
	st.Status = domain.WorkflowStatus(status)
	st.Risk = domain.Risk(risk)
	st.CreatedAt, _ = time.Parse(timeLayout, stepCreated)
	var decoded struct {
		Inputs     map[string]any `json:"inputs"`
		TimeoutSec int            `json:"timeout_sec"`
	}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return st, p, err
	}
	st.Inputs = decoded.Inputs
	st.TimeoutSec = decoded.TimeoutSec
	if sessionGoal.Valid {
		p.SessionGoal = &sessionGoal.String
	}
	p.CreatedAt, _ = time.Parse(timeLayout, planCreated)
	return st, p, nil
}

func (q *Queries) UpdateStepStatus(ctx context.Context, stepID int64, status domain.WorkflowStatus) error {
	_, err := q.q.ExecContext(ctx, `UPDATE steps SET status = ? WHERE id = ?`, string(status), stepID)
	return err
}

// StepStatuses returns every step status of a plan, used for the
// session-status roll-up (invariant 6).
func (q *Queries) StepStatuses(ctx context.Context, planID int64) ([]domain.WorkflowStatus, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT status FROM steps WHERE plan_id = ? ORDER BY ordinal`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.WorkflowStatus
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, domain.WorkflowStatus(s))
	}
	return out, rows.Err()
}

// MostRecentSucceededRunByStepKey backs the reference resolver: it finds the
// latest succeeded run of the step named stepKey within session sessionID.
func (q *Queries) MostRecentSucceededRunByStepKey(ctx context.Context, sessionID, stepKey string) (domain.Run, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT r.id, r.session_id, r.plan_id, r.step_id, r.tool_name, r.status, r.needs_replan,
		       r.failure_reason, r.output_json, r.duration_ms, r.started_at, r.finished_at, r.created_at
		FROM runs r
		JOIN steps s ON s.id = r.step_id
		WHERE r.session_id = ? AND s.step_key = ? AND r.status = 'succeeded'
		ORDER BY r.id DESC LIMIT 1`, sessionID, stepKey)
	return scanRun(row)
}
