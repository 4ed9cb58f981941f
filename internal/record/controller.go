// Package record produces audio sources from bounded microphone captures.
package record

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/xid"

	"github.com/voxsift/voxsift-core/internal/audio"
	"github.com/voxsift/voxsift-core/internal/config"
)

const tickInterval = 100 * time.Millisecond

// Clamp bounds for a requested capture duration, in seconds.
const (
	MinDurationS = 1
	MaxDurationS = 300
)

// ClampDuration forces a requested duration into the accepted range.
// Out-of-range custom values are clamped, not rejected.
func ClampDuration(seconds int) int {
	if seconds < MinDurationS {
		return MinDurationS
	}
	if seconds > MaxDurationS {
		return MaxDurationS
	}
	return seconds
}

// FormatRemaining renders a remaining duration as mm:ss.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Controller drives one bounded capture at a time: it acquires the device,
// ticks a 100 ms countdown, auto-stops when the duration elapses, and
// finalizes the capture into a recorded audio source. Stop is idempotent.
type Controller struct {
	device CaptureDevice
	cfg    config.RecordingConfig
	log    *slog.Logger

	// OnTick, when set, receives the formatted remaining time every tick.
	OnTick func(remaining string)

	// OnComplete, when set, receives the finalized source on every stop
	// path, including auto-stop.
	OnComplete func(src *audio.Source)

	mu        sync.Mutex
	recording bool
	startedAt time.Time
	duration  time.Duration
	stopTick  chan struct{}
	autoStop  *time.Timer
	wg        sync.WaitGroup
}

// NewController builds a controller around the given capture device.
func NewController(device CaptureDevice, cfg config.RecordingConfig, log *slog.Logger) *Controller {
	return &Controller{device: device, cfg: cfg, log: log}
}

// NewDevice builds the configured capture backend.
func NewDevice(cfg config.RecordingConfig) (CaptureDevice, error) {
	switch cfg.Mode {
	case "exec":
		return NewExecDevice(cfg)
	default:
		return NewMockDevice(cfg.SampleRate, cfg.Channels), nil
	}
}

// DefaultDuration returns the configured capture duration in seconds.
func (c *Controller) DefaultDuration() int {
	return ClampDuration(c.cfg.DefaultDuration)
}

// Recording reports whether a capture is in progress.
func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// Remaining returns the time left in the current capture, zero when idle.
func (c *Controller) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.recording {
		return 0
	}
	remaining := c.duration - time.Since(c.startedAt)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Start acquires the microphone and begins a capture bounded to
// durationSeconds (clamped to [1,300]). On device failure the controller
// stays in the not-recording state.
func (c *Controller) Start(ctx context.Context, durationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recording {
		return fmt.Errorf("recording already in progress")
	}

	duration := time.Duration(ClampDuration(durationSeconds)) * time.Second

	if err := c.device.Start(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	c.recording = true
	c.startedAt = time.Now()
	c.duration = duration
	c.stopTick = make(chan struct{})

	// Exactly one countdown clock and one auto-stop timer per capture; both
	// are cancelled on every stop path.
	c.wg.Add(1)
	go c.runCountdown(c.stopTick)
	c.autoStop = time.AfterFunc(duration, func() {
		if _, err := c.Stop(); err != nil {
			c.log.Warn("auto-stop failed", slog.String("error", err.Error()))
		}
	})

	c.log.Info("recording started", slog.Duration("duration", duration))
	return nil
}

// Stop finalizes the capture into a recorded audio source and releases the
// device. Stopping an idle controller is a no-op returning (nil, nil),
// whether Stop is reached by the user, by the countdown, or by navigation
// away.
func (c *Controller) Stop() (*audio.Source, error) {
	c.mu.Lock()
	if !c.recording {
		c.mu.Unlock()
		return nil, nil
	}
	c.recording = false
	close(c.stopTick)
	c.stopTick = nil
	c.autoStop.Stop()
	c.autoStop = nil
	c.mu.Unlock()

	c.wg.Wait()

	pcm, err := c.device.Stop()
	if err != nil {
		return nil, fmt.Errorf("finalize capture: %w", err)
	}

	data, err := encodeWAV(pcm, c.cfg.SampleRate, c.cfg.Channels)
	if err != nil {
		return nil, fmt.Errorf("encode capture: %w", err)
	}

	name := fmt.Sprintf("recording_%s.wav", xid.New().String())
	src, err := audio.NewRecorded(name, data)
	if err != nil {
		return nil, fmt.Errorf("wrap capture: %w", err)
	}

	c.log.Info("recording stopped", slog.String("name", name), slog.Int("bytes", len(data)))
	if c.OnComplete != nil {
		c.OnComplete(src)
	}
	return src, nil
}

func (c *Controller) runCountdown(stop <-chan struct{}) {
	defer c.wg.Done()
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			remaining := c.Remaining()
			if c.OnTick != nil {
				c.OnTick(FormatRemaining(remaining))
			}
			if remaining <= 0 {
				// Double insurance alongside the auto-stop timer.
				go func() { _, _ = c.Stop() }()
				return
			}
		}
	}
}

// encodeWAV wraps raw 16-bit little-endian PCM in a WAV container.
func encodeWAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("pcm payload not aligned")
	}
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	buffer := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:   samples,
	}

	var out seekableBuffer
	enc := wav.NewEncoder(&out, sampleRate, 16, channels, 1)
	if err := enc.Write(buffer); err != nil {
		return nil, fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close wav encoder: %w", err)
	}
	return out.Bytes(), nil
}

// seekableBuffer gives the wav encoder the WriteSeeker it needs while
// keeping the result in memory.
type seekableBuffer struct {
	buf bytes.Buffer
	pos int
}

func (b *seekableBuffer) Write(p []byte) (int, error) {
	if b.pos < b.buf.Len() {
		n := copy(b.buf.Bytes()[b.pos:], p)
		if n < len(p) {
			if _, err := b.buf.Write(p[n:]); err != nil {
				return n, err
			}
		}
		b.pos += len(p)
		return len(p), nil
	}
	n, err := b.buf.Write(p)
	b.pos += n
	return n, err
}

func (b *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case 0:
		next = int(offset)
	case 1:
		next = b.pos + int(offset)
	case 2:
		next = b.buf.Len() + int(offset)
	default:
		return 0, fmt.Errorf("unsupported whence: %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position")
	}
	b.pos = next
	return int64(next), nil
}

func (b *seekableBuffer) Bytes() []byte { return b.buf.Bytes() }
