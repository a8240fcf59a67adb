package engine

import (
	"context"
	"encoding/json"

	"reach/workflowd/internal/domain"
	"reach/workflowd/internal/refresolve"
	"reach/workflowd/internal/storage"
	"reach/workflowd/internal/tools"
	"reach/workflowd/internal/wferrors"
)

// ExecuteResult is ExecuteStep's return shape (spec §4.5 step 12). StepID
// carries the external step_key, not the step's internal row id.
type ExecuteResult struct {
	SessionID string         `json:"session_id"`
	StepID    string         `json:"step_id"`
	Status    string         `json:"status"`
	RunID     int64          `json:"run_id"`
	Output    any            `json:"output,omitempty"`
	Error     string         `json:"error,omitempty"`
	Artifacts []domain.Artifact `json:"artifacts"`
}

// ExecuteStep runs the full pipeline from spec §4.5: approval checks,
// high-risk confirmation, dry_run refusal, reference resolution, the
// preview-gate policy, bounded tool invocation, and session roll-up.
// stepKey is the external step identity (unique per plan), not the step's
// internal row id.
func (e *Engine) ExecuteStep(ctx context.Context, sessionID, stepKey string, confirmHighRisk bool) (ExecuteResult, error) {
	var result ExecuteResult

	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		session, err := q.GetSession(ctx, sessionID)
		if err != nil {
			return wrapStorageErr(err, "session")
		}
		if session.NeedsReplan {
			return wferrors.ProtocolViolation(wferrors.ReasonNeedsReplan, "session needs replan")
		}

		step, plan, err := q.GetStep(ctx, sessionID, stepKey)
		if err != nil {
			return wrapStorageErr(err, "step")
		}

		planApproved, err := q.HasPlanApproval(ctx, plan.ID)
		if err != nil {
			return err
		}
		stepApproved, err := q.HasStepApproval(ctx, step.ID)
		if err != nil {
			return err
		}
		if !planApproved || !stepApproved {
			return wferrors.ProtocolViolation(wferrors.ReasonUnapproved, "step execution requires plan and step approval")
		}

		if step.Risk == domain.RiskHigh && !confirmHighRisk {
			return wferrors.ProtocolViolation(wferrors.ReasonHighRiskUnconfirmed, "confirm_high_risk=true required")
		}

		if session.Mode == domain.ModeDryRun && tools.IsMutatingInvocation(step.ToolName, step.Inputs) {
			return wferrors.ProtocolViolation(wferrors.ReasonDryRunRefusesMutation, "dry_run mode refuses mutating tool")
		}

		resolved, err := refresolve.Resolve(ctx, sessionID, mapOrEmpty(step.Inputs), runLookupFor(q))
		if err != nil {
			if uerr, ok := err.(*refresolve.UnresolvedReferenceError); ok {
				return wferrors.ProtocolViolation(wferrors.ReasonReferenceUnresolved, uerr.Error())
			}
			return err
		}
		resolvedInputs, _ := resolved.(map[string]any)

		workspaceRoot := e.workspace.WorkspaceDir(sessionID)
		ts := now()

		if gateErr := previewGateError(session.SafetyProfile, step.ToolName, resolvedInputs); gateErr != "" {
			run, _ := domain.Transition(domain.Run{
				SessionID: sessionID, PlanID: plan.ID, StepID: step.ID, ToolName: step.ToolName,
				Status: domain.StatusAwaitingPlanApproval, CreatedAt: ts,
			}, domain.StatusAwaitingStepApproval, "", ts)
			run, _ = domain.Transition(run, domain.StatusRunning, "", ts)
			run, _ = domain.Transition(run, domain.StatusFailed, gateErr, ts)

			runID, err := q.CreateRun(ctx, run)
			if err != nil {
				return err
			}
			run.ID = runID
			result, err = e.finishFailedStep(ctx, q, session, plan, step, run, gateErr)
			return err
		}

		run, rerr := domain.Transition(domain.Run{
			SessionID: sessionID, PlanID: plan.ID, StepID: step.ID, ToolName: step.ToolName,
			Status: domain.StatusAwaitingPlanApproval, CreatedAt: ts,
		}, domain.StatusAwaitingStepApproval, "", ts)
		if rerr != nil {
			return rerr
		}
		run, rerr = domain.Transition(run, domain.StatusRunning, "", ts)
		if rerr != nil {
			return rerr
		}
		runID, err := q.CreateRun(ctx, run)
		if err != nil {
			return err
		}
		run.ID = runID

		callInputs := make(map[string]any, len(resolvedInputs)+1)
		for k, v := range resolvedInputs {
			callInputs[k] = v
		}
		runResult := e.executor.Execute(ctx, step.ToolName, workspaceRoot, callInputs, step.TimeoutSec)

		finishedAt := now()
		if runResult.Status == "succeeded" {
			outputJSON, jerr := json.Marshal(runResult.Output)
			if jerr != nil {
				return jerr
			}
			run, rerr = domain.Transition(run, domain.StatusSucceeded, "", finishedAt)
			if rerr != nil {
				return rerr
			}
			run.Output = string(outputJSON)
			var d = runResult.DurationMS
			run.DurationMS = &d
			if err := q.UpdateRun(ctx, run); err != nil {
				return err
			}

			var artifacts []domain.Artifact
			if runResult.Artifact != nil {
				art, err := e.persistArtifact(ctx, q, sessionID, run.ID, step.ID, 1, "tool_output", runResult.Artifact.Name, runResult.Artifact.Content)
				if err != nil {
					return err
				}
				artifacts = append(artifacts, art)
			}

			if err := q.UpdateStepStatus(ctx, step.ID, domain.StatusSucceeded); err != nil {
				return err
			}
			if err := e.rollupSession(ctx, q, session, plan.ID, false); err != nil {
				return err
			}

			if err := e.emitEvent(ctx, q, sessionID, &run.ID, "step_executed", "step executed", map[string]any{
				"tool": step.ToolName, "runtime_status": runResult.Status, "output": runResult.Output,
				"error": "", "artifacts": artifactNames(artifacts),
			}); err != nil {
				return err
			}
			for _, art := range artifacts {
				if err := e.emitEvent(ctx, q, sessionID, &run.ID, "artifact_saved", "artifact saved", map[string]any{
					"artifact_id": art.ID, "name": art.Name, "path": art.Path, "sha256": art.SHA256,
				}); err != nil {
					return err
				}
			}

			result = ExecuteResult{
				SessionID: sessionID, StepID: step.StepKey, Status: string(run.Status),
				RunID: run.ID, Output: runResult.Output, Artifacts: artifacts,
			}
			return nil
		}

		result, err = e.finishFailedStep(ctx, q, session, plan, step, run, runResult.Error)
		return err
	})
	if err != nil {
		if we, ok := wferrors.As(err); ok {
			return ExecuteResult{}, we
		}
		return ExecuteResult{}, wrapStorageErr(err, "step")
	}
	return result, nil
}

// finishFailedStep transitions run to failed (if not already), updates step
// and session status, and emits the step_failed event. Used both for
// preview-gate rejections and ordinary tool failures.
func (e *Engine) finishFailedStep(ctx context.Context, q *storage.Queries, session domain.Session, plan domain.Plan, step domain.Step, run domain.Run, reason string) (ExecuteResult, error) {
	finishedAt := now()
	if run.Status != domain.StatusFailed {
		transitioned, err := domain.Transition(run, domain.StatusFailed, reason, finishedAt)
		if err != nil {
			return ExecuteResult{}, err
		}
		run = transitioned
	}
	if err := q.UpdateRun(ctx, run); err != nil {
		return ExecuteResult{}, err
	}
	if err := q.UpdateStepStatus(ctx, step.ID, domain.StatusFailed); err != nil {
		return ExecuteResult{}, err
	}
	if err := e.rollupSession(ctx, q, session, plan.ID, true); err != nil {
		return ExecuteResult{}, err
	}
	if err := e.emitEvent(ctx, q, session.ID, &run.ID, "step_failed", "step failed", map[string]any{
		"tool": step.ToolName, "runtime_status": "failed", "output": nil, "error": reason, "artifacts": []string{},
	}); err != nil {
		return ExecuteResult{}, err
	}
	return ExecuteResult{
		SessionID: session.ID, StepID: step.StepKey, Status: string(domain.StatusFailed),
		RunID: run.ID, Error: reason, Artifacts: nil,
	}, nil
}

// rollupSession implements invariant 6: session status is a pure function of
// its current plan's step statuses (or StatusFailed if justFailed).
func (e *Engine) rollupSession(ctx context.Context, q *storage.Queries, session domain.Session, planID int64, justFailed bool) error {
	statuses, err := q.StepStatuses(ctx, planID)
	if err != nil {
		return err
	}
	session.Status = domain.RollupSessionStatus(statuses, justFailed)
	session.NeedsReplan = justFailed
	session.UpdatedAt = now()
	return q.UpdateSession(ctx, session)
}

// previewGateError returns a non-empty error message if profile=strict and
// the invocation requires a preview that was not supplied.
func previewGateError(profile domain.SafetyProfile, toolName string, inputs map[string]any) string {
	if profile != domain.ProfileStrict {
		return ""
	}
	_, hasPreview := inputs["preview"]
	switch toolName {
	case "write_file_apply":
		if !hasPreview {
			return "preview gate rejected: preview is required for write_file_apply"
		}
	case "apply_patch":
		mode, _ := inputs["mode"].(string)
		if mode == "apply" && !hasPreview {
			return "preview gate rejected: preview is required for apply_patch"
		}
	}
	return ""
}

func mapOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func artifactNames(artifacts []domain.Artifact) []string {
	names := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		names = append(names, a.Name)
	}
	return names
}
