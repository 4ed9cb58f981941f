package protocol

import "time"

// EventKind classifies session events published on the bus.
type EventKind string

const (
	EventStage    EventKind = "stage"
	EventProgress EventKind = "progress"
	EventResult   EventKind = "result"
	EventFailure  EventKind = "failure"
)

// SessionEvent is one observable update from a processing session: a stage
// transition, a progress tick, or a terminal outcome.
type SessionEvent struct {
	SessionID string    `json:"session_id"`
	Kind      EventKind `json:"kind"`
	Stage     string    `json:"stage,omitempty"`
	Status    string    `json:"status,omitempty"`
	Percent   int       `json:"percent,omitempty"`
	Message   string    `json:"message,omitempty"`
	Path      string    `json:"path,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectSessionStage    = "pipeline.session.stage"
	SubjectSessionProgress = "pipeline.session.progress"
	SubjectSessionResult   = "pipeline.session.result"
	SubjectSessionFailure  = "pipeline.session.failure"
)

// Subject returns the bus subject for an event kind.
func Subject(kind EventKind) string {
	switch kind {
	case EventStage:
		return SubjectSessionStage
	case EventProgress:
		return SubjectSessionProgress
	case EventResult:
		return SubjectSessionResult
	case EventFailure:
		return SubjectSessionFailure
	default:
		return SubjectSessionProgress
	}
}
