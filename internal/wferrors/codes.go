// Package wferrors provides the distinguished error taxonomy used across the
// orchestration engine and its API boundary (spec §7: AuthMissing, NotFound,
// InvalidInput, ProtocolViolation, InvalidStateTransition, ToolFailure,
// PreviewGateRejection, PreviewMismatch).
package wferrors

// Code is a string-based error code for classification.
type Code string

const (
	CodeAuthMissing           Code = "AUTH_MISSING"
	CodeNotFound              Code = "NOT_FOUND"
	CodeInvalidInput          Code = "INVALID_INPUT"
	CodeProtocolViolation     Code = "PROTOCOL_VIOLATION"
	CodeInvalidStateTransition Code = "INVALID_STATE_TRANSITION"
	CodeToolFailure           Code = "TOOL_FAILURE"
	CodePreviewGateRejection  Code = "PREVIEW_GATE_REJECTION"
	CodePreviewMismatch       Code = "PREVIEW_MISMATCH"
	CodeInternal              Code = "INTERNAL_ERROR"
)

// ProtocolViolation subkinds, per spec §7.
const (
	ReasonNeedsReplan           = "needs_replan"
	ReasonUnapproved            = "unapproved"
	ReasonHighRiskUnconfirmed   = "high_risk_unconfirmed"
	ReasonDryRunRefusesMutation = "dry_run_refuses_mutation"
	ReasonReferenceUnresolved   = "reference_unresolved"
)

// HTTPStatus maps a code to the status the API surface must answer with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeAuthMissing:
		return 401
	case CodeNotFound:
		return 404
	case CodeInvalidInput:
		return 422
	case CodeProtocolViolation:
		return 409
	case CodeInvalidStateTransition:
		return 500
	default:
		return 500
	}
}
