package record

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxsift/voxsift-core/internal/audio"
	"github.com/voxsift/voxsift-core/internal/config"
)

func testRecordingConfig() config.RecordingConfig {
	return config.RecordingConfig{
		Mode:            "mock",
		SampleRate:      16000,
		Channels:        1,
		DefaultDuration: 30,
		MaxDuration:     300,
	}
}

func newTestController(t *testing.T, device CaptureDevice) *Controller {
	t.Helper()
	return NewController(device, testRecordingConfig(), slog.Default())
}

func TestClampDuration(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{30, 30},
		{300, 300},
		{301, 300},
		{100000, 300},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClampDuration(tc.in), "clamp(%d)", tc.in)
	}
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "00:00", FormatRemaining(0))
	assert.Equal(t, "00:05", FormatRemaining(5*time.Second))
	assert.Equal(t, "01:30", FormatRemaining(90*time.Second))
	assert.Equal(t, "05:00", FormatRemaining(300*time.Second))
	assert.Equal(t, "00:00", FormatRemaining(-time.Second))
}

func TestStartAndStopProducesRecordedSource(t *testing.T) {
	c := newTestController(t, NewMockDevice(16000, 1))

	require.NoError(t, c.Start(context.Background(), 30))
	require.True(t, c.Recording())

	src, err := c.Stop()
	require.NoError(t, err)
	require.NotNil(t, src)
	assert.Equal(t, audio.OriginRecorded, src.Origin)
	assert.NotEmpty(t, src.Bytes)
	assert.Contains(t, src.DisplayName, "recording_")
	assert.False(t, c.Recording())
}

func TestStopIsIdempotent(t *testing.T) {
	c := newTestController(t, NewMockDevice(16000, 1))

	require.NoError(t, c.Start(context.Background(), 10))
	src, err := c.Stop()
	require.NoError(t, err)
	require.NotNil(t, src)

	// Stopping again, from any caller, is a no-op.
	src, err = c.Stop()
	require.NoError(t, err)
	assert.Nil(t, src)
}

func TestStopWithoutStartIsNoOp(t *testing.T) {
	c := newTestController(t, NewMockDevice(16000, 1))
	src, err := c.Stop()
	require.NoError(t, err)
	assert.Nil(t, src)
}

type failingDevice struct{}

func (failingDevice) Start(context.Context) error { return errors.New("permission denied") }
func (failingDevice) Stop() ([]byte, error)       { return nil, nil }

func TestStartDeviceFailureLeavesStateUnchanged(t *testing.T) {
	c := newTestController(t, failingDevice{})

	err := c.Start(context.Background(), 10)
	require.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.False(t, c.Recording())
	assert.Zero(t, c.Remaining())
}

func TestAutoStopFiresAtDurationEnd(t *testing.T) {
	c := newTestController(t, NewMockDevice(16000, 1))

	require.NoError(t, c.Start(context.Background(), 1))

	deadline := time.Now().Add(3 * time.Second)
	for c.Recording() && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	assert.False(t, c.Recording(), "controller should auto-stop after the bounded duration")
}

func TestCountdownTicksReportRemainingTime(t *testing.T) {
	c := newTestController(t, NewMockDevice(16000, 1))

	ticks := make(chan string, 64)
	c.OnTick = func(remaining string) {
		select {
		case ticks <- remaining:
		default:
		}
	}

	require.NoError(t, c.Start(context.Background(), 30))
	defer func() { _, _ = c.Stop() }()

	select {
	case tick := <-ticks:
		assert.Regexp(t, `^\d{2}:\d{2}$`, tick)
	case <-time.After(time.Second):
		t.Fatal("expected a countdown tick within one second")
	}
}

func TestRemainingNeverNegative(t *testing.T) {
	c := newTestController(t, NewMockDevice(16000, 1))
	require.NoError(t, c.Start(context.Background(), 1))
	defer func() { _, _ = c.Stop() }()

	time.Sleep(150 * time.Millisecond)
	assert.GreaterOrEqual(t, c.Remaining(), time.Duration(0))
}

func TestEncodeWAVRejectsUnalignedPCM(t *testing.T) {
	_, err := encodeWAV([]byte{1, 2, 3}, 16000, 1)
	require.Error(t, err)
}

func TestEncodeWAVRoundSize(t *testing.T) {
	data, err := encodeWAV(make([]byte, 3200), 16000, 1)
	require.NoError(t, err)
	assert.Greater(t, len(data), 44, "wav payload should include header plus samples")
}
