package storage

import (
	"context"
	"time"

	"reach/workflowd/internal/domain"
)

func (q *Queries) InsertApproval(ctx context.Context, a domain.Approval) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO approvals (session_id, plan_id, step_id, subject_type, approved_by, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.SessionID, a.PlanID, a.StepID, string(a.SubjectType), a.ApprovedBy, a.Source, time.Now().UTC().Format(timeLayout))
	return err
}

// HasPlanApproval reports whether planID has ever received a plan-level approval.
func (q *Queries) HasPlanApproval(ctx context.Context, planID int64) (bool, error) {
	var n int
	err := q.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM approvals WHERE plan_id = ? AND subject_type = 'plan'`, planID).Scan(&n)
	return n > 0, err
}

// HasStepApproval reports whether stepID has ever received a step-level approval.
func (q *Queries) HasStepApproval(ctx context.Context, stepID int64) (bool, error) {
	var n int
	err := q.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM approvals WHERE step_id = ? AND subject_type = 'step'`, stepID).Scan(&n)
	return n > 0, err
}
