package record

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/voxsift/voxsift-core/internal/config"
)

// execDevice captures audio by running an external recorder command
// (arecord, sox, ffmpeg) that writes raw little-endian 16-bit PCM to stdout
// until it receives an interrupt.
type execDevice struct {
	cmd []string
	cfg config.RecordingConfig

	mu      sync.Mutex
	proc    *exec.Cmd
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	done    chan error
	running bool
}

// NewExecDevice parses the configured capture command.
func NewExecDevice(cfg config.RecordingConfig) (CaptureDevice, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse capture command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("capture command is empty")
	}
	return &execDevice{cmd: args, cfg: cfg}, nil
}

func (d *execDevice) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return fmt.Errorf("capture already running")
	}

	d.stdout.Reset()
	d.stderr.Reset()

	args := append([]string{}, d.cmd[1:]...)
	args = append(args,
		"--rate", fmt.Sprint(d.cfg.SampleRate),
		"--channels", fmt.Sprint(d.cfg.Channels))
	proc := exec.CommandContext(ctx, d.cmd[0], args...)
	proc.Stdout = &d.stdout
	proc.Stderr = &d.stderr

	if err := proc.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()

	d.proc = proc
	d.done = done
	d.running = true
	return nil
}

func (d *execDevice) Stop() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return nil, nil
	}
	d.running = false

	// Ask the recorder to flush and exit; kill it if it ignores the signal.
	_ = d.proc.Process.Signal(os.Interrupt)
	var err error
	select {
	case err = <-d.done:
	case <-time.After(3 * time.Second):
		_ = d.proc.Process.Kill()
		err = <-d.done
	}
	if err != nil && d.stdout.Len() == 0 {
		return nil, fmt.Errorf("capture command failed: %w: %s", err, d.stderr.String())
	}

	pcm := append([]byte(nil), d.stdout.Bytes()...)
	d.proc = nil
	d.done = nil
	return pcm, nil
}
