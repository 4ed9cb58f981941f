package pipeline

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxsift/voxsift-core/internal/protocol"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// eventCollector records every emitted session event in order.
type eventCollector struct {
	events []protocol.SessionEvent
}

func (c *eventCollector) Emit(ev protocol.SessionEvent) {
	c.events = append(c.events, ev)
}

func (c *eventCollector) byKind(kind protocol.EventKind) []protocol.SessionEvent {
	var out []protocol.SessionEvent
	for _, ev := range c.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func TestStageTransitionsForwardOnly(t *testing.T) {
	s := newSession(PathSimulated, nil, discardLogger())

	require.NoError(t, s.markStage(StagePreprocessing, StatusProcessing))
	require.NoError(t, s.markStage(StagePreprocessing, StatusCompleted))

	assert.Error(t, s.markStage(StagePreprocessing, StatusProcessing), "completed stage must not re-enter processing")
	assert.Error(t, s.markStage(StageRecognition, StatusCompleted), "waiting stage must pass through processing")

	require.NoError(t, s.markStage(StageRecognition, StatusProcessing))
	assert.Equal(t, StatusProcessing, s.StageStatus(StageRecognition))
}

func TestStageRequiresPredecessorCompleted(t *testing.T) {
	s := newSession(PathRemote, nil, discardLogger())

	assert.Error(t, s.markStage(StageRecognition, StatusProcessing))
	assert.Error(t, s.markStage(StageFiltering, StatusProcessing))
	assert.Equal(t, StatusWaiting, s.StageStatus(StageRecognition))

	require.NoError(t, s.markStage(StagePreprocessing, StatusProcessing))
	assert.Error(t, s.markStage(StageRecognition, StatusProcessing), "predecessor still processing")

	require.NoError(t, s.markStage(StagePreprocessing, StatusCompleted))
	require.NoError(t, s.markStage(StageRecognition, StatusProcessing))
}

func TestStageSameStatusIsNoOp(t *testing.T) {
	collector := &eventCollector{}
	s := newSession(PathSimulated, collector, discardLogger())

	require.NoError(t, s.markStage(StagePreprocessing, StatusProcessing))
	require.NoError(t, s.markStage(StagePreprocessing, StatusProcessing))

	assert.Len(t, collector.byKind(protocol.EventStage), 1, "repeat mark must not emit")
}

func TestStageUnknownStage(t *testing.T) {
	s := newSession(PathSimulated, nil, discardLogger())
	assert.Error(t, s.markStage(Stage("transcoding"), StatusProcessing))
}

func TestProgressNeverDecreases(t *testing.T) {
	s := newSession(PathSimulated, nil, discardLogger())

	s.setProgress(30, "recognizing")
	s.setProgress(20, "stale update")
	assert.Equal(t, 30, s.Percent())
	assert.Equal(t, "recognizing", s.Message())

	s.setProgress(70, "filtering")
	assert.Equal(t, 70, s.Percent())
}

func TestProgressClampsAtHundred(t *testing.T) {
	s := newSession(PathSimulated, nil, discardLogger())
	s.setProgress(140, "done")
	assert.Equal(t, 100, s.Percent())
}

func TestProgressKeepsMessageWhenBlank(t *testing.T) {
	s := newSession(PathSimulated, nil, discardLogger())
	s.setProgress(10, "uploading")
	s.setProgress(12, "")
	assert.Equal(t, "uploading", s.Message())
}

func TestEmitStampsSessionFields(t *testing.T) {
	collector := &eventCollector{}
	s := newSession(PathRemote, collector, discardLogger())

	s.setProgress(5, "uploading")

	require.Len(t, collector.events, 1)
	ev := collector.events[0]
	assert.Equal(t, s.ID(), ev.SessionID)
	assert.Equal(t, string(PathRemote), ev.Path)
	assert.False(t, ev.Timestamp.IsZero())
}
