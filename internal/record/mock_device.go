package record

import (
	"context"
	"math"
	"sync"
	"time"
)

// mockDevice synthesizes a 440 Hz tone for however long the capture ran.
// It keeps the recording flow exercisable without microphone hardware.
type mockDevice struct {
	sampleRate int
	channels   int

	mu      sync.Mutex
	started time.Time
	open    bool
}

// NewMockDevice returns a capture device producing deterministic PCM.
func NewMockDevice(sampleRate, channels int) CaptureDevice {
	return &mockDevice{sampleRate: sampleRate, channels: channels}
}

func (d *mockDevice) Start(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = time.Now()
	d.open = true
	return nil
}

func (d *mockDevice) Stop() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return nil, nil
	}
	d.open = false

	elapsed := time.Since(d.started)
	if elapsed < 100*time.Millisecond {
		elapsed = 100 * time.Millisecond
	}
	sampleCount := int(float64(d.sampleRate)*elapsed.Seconds()) * d.channels
	pcm := make([]byte, sampleCount*2)
	for i := 0; i < sampleCount; i++ {
		sample := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(d.sampleRate)))
		pcm[i*2] = byte(sample)
		pcm[i*2+1] = byte(sample >> 8)
	}
	return pcm, nil
}
