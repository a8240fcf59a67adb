package engine

import (
	"context"

	"reach/workflowd/internal/domain"
	"reach/workflowd/internal/storage"
	"reach/workflowd/internal/wferrors"
)

// ImportPlan upserts the (session_id, version) plan and replaces its steps
// wholesale, preserving the incoming order. Moves the session to
// awaiting_plan_approval and clears needs_replan.
func (e *Engine) ImportPlan(ctx context.Context, sessionID string, version int, title string, sessionGoal *string, stepInputs []domain.StepInput) (domain.Plan, error) {
	if version < 1 {
		return domain.Plan{}, wferrors.InvalidInput("version", "version must be >= 1")
	}
	if title == "" {
		return domain.Plan{}, wferrors.InvalidInput("title", "title is required")
	}
	for i, si := range stepInputs {
		if si.ID == "" || si.Tool == "" {
			return domain.Plan{}, wferrors.InvalidInput("steps", "each step requires an id and a tool")
		}
		_ = i
	}

	var plan domain.Plan
	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		session, err := q.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}

		ts := now()
		plan = domain.Plan{
			SessionID:   sessionID,
			Version:     version,
			Title:       title,
			SessionGoal: sessionGoal,
			CreatedAt:   ts,
		}
		planID, err := q.UpsertPlan(ctx, plan)
		if err != nil {
			return err
		}
		plan.ID = planID

		steps := make([]domain.Step, 0, len(stepInputs))
		for _, si := range stepInputs {
			risk := si.Risk
			if risk == "" {
				risk = domain.RiskLow
			}
			steps = append(steps, domain.Step{
				PlanID:     planID,
				StepKey:    si.ID,
				Title:      si.Title,
				ToolName:   si.Tool,
				Status:     domain.StatusPending,
				Risk:       risk,
				Inputs:     si.Inputs,
				TimeoutSec: domain.ClampTimeout(si.TimeoutSec),
				CreatedAt:  ts,
			})
		}
		if err := q.ReplaceSteps(ctx, planID, steps); err != nil {
			return err
		}
		plan.Steps = steps

		session.Status = domain.StatusAwaitingPlanApproval
		session.NeedsReplan = false
		v := version
		session.PlanVersion = &v
		if sessionGoal != nil {
			session.Goal = *sessionGoal
		}
		session.UpdatedAt = ts
		if err := q.UpdateSession(ctx, session); err != nil {
			return err
		}

		return e.emitEvent(ctx, q, sessionID, nil, "plan_imported", "plan imported", map[string]any{
			"session_id": sessionID,
			"version":    version,
			"step_count": len(steps),
		})
	})
	if err != nil {
		return domain.Plan{}, wrapStorageErr(err, "session")
	}
	return plan, nil
}

// GetPlan loads a plan and its steps, ordered by insertion.
func (e *Engine) GetPlan(ctx context.Context, sessionID string, version int) (domain.Plan, error) {
	var plan domain.Plan
	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		plan, err = q.GetPlan(ctx, sessionID, version)
		return err
	})
	if err != nil {
		return domain.Plan{}, wrapStorageErr(err, "plan")
	}
	return plan, nil
}

// ApprovePlan records a plan-level approval and moves the session to
// awaiting_step_approval.
func (e *Engine) ApprovePlan(ctx context.Context, sessionID string, version int, approvedBy, source string) error {
	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		session, err := q.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		plan, err := q.GetPlan(ctx, sessionID, version)
		if err != nil {
			return err
		}
		if err := q.InsertApproval(ctx, domain.Approval{
			SessionID:   sessionID,
			PlanID:      plan.ID,
			SubjectType: domain.SubjectPlan,
			ApprovedBy:  approvedBy,
			Source:      source,
		}); err != nil {
			return err
		}
		session.Status = domain.StatusAwaitingStepApproval
		session.UpdatedAt = now()
		if err := q.UpdateSession(ctx, session); err != nil {
			return err
		}
		return e.emitEvent(ctx, q, sessionID, nil, "plan_approved", "plan approved", map[string]any{
			"session_id": sessionID,
			"version":    version,
			"approved_by": approvedBy,
		})
	})
	if err != nil {
		return wrapStorageErr(err, "plan")
	}
	return nil
}

// ApproveStep records a step-level approval and sets the step's status to
// awaiting_step_approval. stepKey is the external step identity (unique per
// plan), not the step's internal row id.
func (e *Engine) ApproveStep(ctx context.Context, sessionID, stepKey string, approvedBy, source string) error {
	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		step, plan, err := q.GetStep(ctx, sessionID, stepKey)
		if err != nil {
			return err
		}
		if err := q.InsertApproval(ctx, domain.Approval{
			SessionID:   sessionID,
			PlanID:      plan.ID,
			StepID:      &step.ID,
			SubjectType: domain.SubjectStep,
			ApprovedBy:  approvedBy,
			Source:      source,
		}); err != nil {
			return err
		}
		if err := q.UpdateStepStatus(ctx, step.ID, domain.StatusAwaitingStepApproval); err != nil {
			return err
		}
		return e.emitEvent(ctx, q, sessionID, nil, "step_approved", "step approved", map[string]any{
			"session_id":  sessionID,
			"step_key":    stepKey,
			"approved_by": approvedBy,
		})
	})
	if err != nil {
		return wrapStorageErr(err, "step")
	}
	return nil
}
