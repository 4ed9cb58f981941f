package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/voxsift/voxsift-core/internal/protocol"
)

// Stage names one phase of a processing session.
type Stage string

const (
	StagePreprocessing Stage = "preprocessing"
	StageRecognition   Stage = "recognition"
	StageFiltering     Stage = "filtering"
)

// StageStatus is the lifecycle position of a single stage.
type StageStatus string

const (
	StatusWaiting    StageStatus = "waiting"
	StatusProcessing StageStatus = "processing"
	StatusCompleted  StageStatus = "completed"
)

// Path is the execution mode chosen once per session.
type Path string

const (
	PathRemote    Path = "remote"
	PathSimulated Path = "simulated"
)

// stageOrder defines the mandatory chronological order of stages.
var stageOrder = []Stage{StagePreprocessing, StageRecognition, StageFiltering}

// Emitter receives session events as they occur.
type Emitter interface {
	Emit(ev protocol.SessionEvent)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ev protocol.SessionEvent)

func (f EmitterFunc) Emit(ev protocol.SessionEvent) { f(ev) }

// MultiEmitter fans one event out to several emitters, skipping nils.
type MultiEmitter []Emitter

func (m MultiEmitter) Emit(ev protocol.SessionEvent) {
	for _, e := range m {
		if e != nil {
			e.Emit(ev)
		}
	}
}

// Session tracks one processing invocation: per-stage statuses, a monotonic
// progress percentage, and the chosen execution path. The orchestrator owns
// the session exclusively; it is not safe for concurrent use.
type Session struct {
	id      string
	path    Path
	stages  map[Stage]StageStatus
	percent int
	message string
	emitter Emitter
	log     *slog.Logger
}

func newSession(path Path, emitter Emitter, log *slog.Logger) *Session {
	return &Session{
		id:   xid.New().String(),
		path: path,
		stages: map[Stage]StageStatus{
			StagePreprocessing: StatusWaiting,
			StageRecognition:   StatusWaiting,
			StageFiltering:     StatusWaiting,
		},
		emitter: emitter,
		log:     log,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Path returns the execution mode chosen for this session.
func (s *Session) Path() Path { return s.path }

// StageStatus returns the current status of one stage.
func (s *Session) StageStatus(stage Stage) StageStatus {
	return s.stages[stage]
}

// Percent returns the current progress percentage.
func (s *Session) Percent() int { return s.percent }

// Message returns the current human-readable step description.
func (s *Session) Message() string { return s.message }

// markStage advances one stage. Statuses only move forward
// (waiting -> processing -> completed) and a stage may not start processing
// before its predecessor has completed.
func (s *Session) markStage(stage Stage, status StageStatus) error {
	current, ok := s.stages[stage]
	if !ok {
		return fmt.Errorf("unknown stage: %s", stage)
	}
	if current == status {
		return nil
	}
	if !validStageTransition(current, status) {
		return fmt.Errorf("invalid stage transition: %s %s -> %s", stage, current, status)
	}
	if status == StatusProcessing {
		for _, prior := range stageOrder {
			if prior == stage {
				break
			}
			if s.stages[prior] != StatusCompleted {
				return fmt.Errorf("stage %s cannot start before %s completes", stage, prior)
			}
		}
	}

	s.stages[stage] = status
	s.log.Debug("stage transition",
		slog.String("session", s.id),
		slog.String("stage", string(stage)),
		slog.String("status", string(status)))
	s.emit(protocol.SessionEvent{
		Kind:   protocol.EventStage,
		Stage:  string(stage),
		Status: string(status),
	})
	return nil
}

// setProgress records a new progress value. Progress never decreases and
// never exceeds 100 within a session.
func (s *Session) setProgress(percent int, message string) {
	if percent > 100 {
		percent = 100
	}
	if percent < s.percent {
		return
	}
	s.percent = percent
	if message != "" {
		s.message = message
	}
	s.emit(protocol.SessionEvent{
		Kind:    protocol.EventProgress,
		Percent: s.percent,
		Message: s.message,
	})
}

func (s *Session) emit(ev protocol.SessionEvent) {
	if s.emitter == nil {
		return
	}
	ev.SessionID = s.id
	ev.Path = string(s.path)
	ev.Timestamp = time.Now().UTC()
	s.emitter.Emit(ev)
}

func validStageTransition(from, to StageStatus) bool {
	switch from {
	case StatusWaiting:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusCompleted
	default:
		return false
	}
}
