package domain

import "fmt"

type Action string

const (
	ActionOpenFile Action = "open_file"
	ActionOpenApp  Action = "open_app"
	ActionSystem   Action = "system"
	ActionAnswer   Action = "answer"
	ActionUnknown  Action = "unknown"
)

// ParseAction maps a model-supplied action string onto the enumerated
// domain. Anything outside the five values is a malformed reply, not an
// implicit unknown.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionOpenFile, ActionOpenApp, ActionSystem, ActionAnswer, ActionUnknown:
		return Action(s), true
	}
	return "", false
}

// TextCommandPrefix marks source payloads that are already text and
// need no transcription.
const TextCommandPrefix = "__TEXT__:"

// RawIntent is the decoded model reply. It is untrusted until it has
// passed validation against the capability table.
type RawIntent struct {
	Action     Action
	Target     string
	Response   string
	Confidence float64
}

type ResolvedKind string

const (
	ResolvedOpenFile  ResolvedKind = "open_file"
	ResolvedOpenApp   ResolvedKind = "open_app"
	ResolvedRunSystem ResolvedKind = "run_system"
	ResolvedSpeak     ResolvedKind = "speak"
)

// ResolvedAction is a validated, executable command. Path, Command and
// SystemAction carry the capability table's resolved reference, never
// the raw model text. Only the validator builds these.
type ResolvedAction struct {
	Kind         ResolvedKind
	Target       string
	Path         string
	Command      string
	SystemAction string
	Level        *int
	Response     string
}

type RejectionKind string

const (
	RejectLowConfidence       RejectionKind = "low_confidence"
	RejectUnknownTarget       RejectionKind = "unknown_target"
	RejectMalformedReply      RejectionKind = "malformed_reply"
	RejectTimeout             RejectionKind = "timeout"
	RejectUpstreamUnavailable RejectionKind = "upstream_unavailable"
)

// Rejection is a pre-effect refusal: nothing has run, retrying is safe.
type Rejection struct {
	Kind   RejectionKind
	Detail string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("rejected (%s): %s", r.Kind, r.Detail)
}

func Rejectf(kind RejectionKind, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// ExecutorError wraps a failed side effect. The effect may have partly
// happened, so it is reported rather than retried.
type ExecutorError struct {
	Action ResolvedKind
	Cause  error
}

func (e *ExecutorError) Error() string {
	return fmt.Sprintf("executor %s: %v", e.Action, e.Cause)
}

func (e *ExecutorError) Unwrap() error { return e.Cause }

// Outcome records the single dispatch of a resolved action.
type Outcome struct {
	Resolved ResolvedAction
	Err      error
}

type FeedbackStatus string

const (
	StatusSuccess  FeedbackStatus = "success"
	StatusRejected FeedbackStatus = "rejected"
	StatusFailed   FeedbackStatus = "failed"
)

// FeedbackSignal is the terminal result of one voice-command pass,
// handed to the feedback layer for rendering.
type FeedbackSignal struct {
	Status    FeedbackStatus
	Rejection *Rejection
	Err       error
	Message   string
}

func SuccessSignal(message string) FeedbackSignal {
	return FeedbackSignal{Status: StatusSuccess, Message: message}
}

func RejectedSignal(rej *Rejection) FeedbackSignal {
	return FeedbackSignal{Status: StatusRejected, Rejection: rej, Message: rej.Detail}
}

func FailedSignal(err error) FeedbackSignal {
	return FeedbackSignal{Status: StatusFailed, Err: err, Message: err.Error()}
}
