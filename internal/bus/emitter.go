package bus

import (
	"encoding/json"
	"log/slog"

	"github.com/voxsift/voxsift-core/internal/protocol"
)

// Emitter publishes session events to the bus. Publish failures are logged
// and swallowed so a degraded bus never stalls the pipeline.
type Emitter struct {
	client *Client
	log    *slog.Logger
}

func NewEmitter(client *Client, log *slog.Logger) *Emitter {
	return &Emitter{client: client, log: log}
}

func (e *Emitter) Emit(event protocol.SessionEvent) {
	if e == nil || e.client == nil || !e.client.Healthy() {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		e.log.Warn("marshal session event", slog.String("error", err.Error()))
		return
	}
	if err := e.client.Conn().Publish(protocol.Subject(event.Kind), payload); err != nil {
		e.log.Warn("publish session event",
			slog.String("subject", protocol.Subject(event.Kind)),
			slog.String("error", err.Error()))
	}
}
