// Package diagnostics implements the doctor hermetic probe (spec §4.7): a
// disposable session is pushed through the full happy-path lifecycle and
// each stage yields one check, grounded on the pack-devkit health-check
// report shape (DoctorCheck/DoctorReport/DoctorSummary).
package diagnostics

import (
	"context"
	"fmt"

	"reach/workflowd/internal/domain"
	"reach/workflowd/internal/engine"
)

// CheckStatus is the closed set of outcomes a single check can report.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusFail CheckStatus = "fail"
	StatusWarn CheckStatus = "warn"
	StatusSkip CheckStatus = "skip"
)

// Check is one probe stage's result.
type Check struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	Detail string      `json:"detail"`
}

// Report is the doctor routine's full output.
type Report struct {
	OK     bool    `json:"ok"`
	Checks []Check `json:"checks"`
}

func (r *Report) add(name string, status CheckStatus, detail string) {
	r.Checks = append(r.Checks, Check{Name: name, Status: status, Detail: detail})
}

func (r *Report) failCount() int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			n++
		}
	}
	return n
}

// Run drives one hermetic probe through the engine: create a disposable
// session, import a minimal one-step plan, approve plan and step, execute
// the step with a readonly tool, search events, list artifacts, stop the
// session. A chain-breaking failure short-circuits remaining checks as skip.
func Run(ctx context.Context, eng *engine.Engine) *Report {
	report := &Report{Checks: []Check{}}

	session, err := eng.CreateSession(ctx, "doctor probe", domain.ModeNormal, domain.ProfileDev)
	if err != nil {
		report.add("create_session", StatusFail, err.Error())
		skipRemaining(report)
		report.OK = report.failCount() == 0
		return report
	}
	report.add("create_session", StatusPass, "session "+session.ID+" created")

	plan, err := eng.ImportPlan(ctx, session.ID, 1, "doctor probe plan", nil, []domain.StepInput{
		{ID: "probe_list_dir", Title: "list workspace root", Tool: "list_dir", Inputs: map[string]any{"path": "."}, TimeoutSec: 10, Risk: domain.RiskLow},
	})
	if err != nil {
		report.add("import_plan", StatusFail, err.Error())
		skipRemaining(report)
		report.OK = report.failCount() == 0
		return report
	}
	report.add("import_plan", StatusPass, fmt.Sprintf("plan v%d imported with %d step(s)", plan.Version, len(plan.Steps)))

	if err := eng.ApprovePlan(ctx, session.ID, plan.Version, "doctor", "diagnostics"); err != nil {
		report.add("approve_plan", StatusFail, err.Error())
		skipRemaining(report)
		report.OK = report.failCount() == 0
		return report
	}
	report.add("approve_plan", StatusPass, "plan approved")

	step := plan.Steps[0]
	if err := eng.ApproveStep(ctx, session.ID, step.StepKey, "doctor", "diagnostics"); err != nil {
		report.add("approve_step", StatusFail, err.Error())
		skipRemaining(report)
		report.OK = report.failCount() == 0
		return report
	}
	report.add("approve_step", StatusPass, "step approved")

	result, err := eng.ExecuteStep(ctx, session.ID, step.StepKey, false)
	if err != nil {
		report.add("execute_step", StatusFail, err.Error())
	} else if result.Status != "succeeded" {
		report.add("execute_step", StatusFail, "expected status succeeded, got "+result.Status)
	} else {
		report.add("execute_step", StatusPass, fmt.Sprintf("run %d succeeded with %d artifact(s)", result.RunID, len(result.Artifacts)))
	}

	if _, err := eng.SearchEvents(ctx, session.ID, ""); err != nil {
		report.add("search_events", StatusFail, err.Error())
	} else {
		report.add("search_events", StatusPass, "event search returned")
	}

	if _, err := eng.ListArtifacts(ctx, session.ID); err != nil {
		report.add("list_artifacts", StatusFail, err.Error())
	} else {
		report.add("list_artifacts", StatusPass, "artifact listing returned")
	}

	if _, err := eng.StopSession(ctx, session.ID); err != nil {
		report.add("stop_session", StatusFail, err.Error())
	} else {
		report.add("stop_session", StatusPass, "session cancelled")
	}

	report.OK = report.failCount() == 0
	return report
}

func skipRemaining(report *Report) {
	stages := []string{"import_plan", "approve_plan", "approve_step", "execute_step", "search_events", "list_artifacts", "stop_session"}
	done := map[string]bool{}
	for _, c := range report.Checks {
		done[c.Name] = true
	}
	for _, stage := range stages {
		if !done[stage] {
			report.add(stage, StatusSkip, "skipped after a preceding check failed")
		}
	}
}
