package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/voxsift/voxsift-core/internal/bus"
	"github.com/voxsift/voxsift-core/internal/config"
	"github.com/voxsift/voxsift-core/internal/natsserver"
	"github.com/voxsift/voxsift-core/internal/pipeline"
	"github.com/voxsift/voxsift-core/internal/present"
	"github.com/voxsift/voxsift-core/internal/record"
	"github.com/voxsift/voxsift-core/internal/remote"
)

// Runtime assembles the processing components from config: the remote
// service client, the pipeline orchestrator, the recording controller, the
// presenter, and the supporting bus and telemetry plumbing.
type Runtime struct {
	cfg config.Config
	log *slog.Logger

	Pipeline  *pipeline.Orchestrator
	Recorder  *record.Controller
	Presenter *present.Presenter
	State     *App

	embedded   *natsserver.EmbeddedServer
	busClient  *bus.Client
	metricsSrv *http.Server

	telemetryClose func(context.Context) error
	wg             sync.WaitGroup
}

func New(cfg config.Config, log *slog.Logger) *Runtime {
	return &Runtime{
		cfg: cfg,
		log: log,
	}
}

// Start initializes telemetry, the bus, and the pipeline components.
// Observers receive every session event alongside the bus emitter.
func (r *Runtime) Start(ctx context.Context, observers ...pipeline.Emitter) error {
	telemetryClose, metricHandler, err := setupTelemetry(r.cfg, r.log)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	r.telemetryClose = telemetryClose

	if bind := r.cfg.Telemetry.PrometheusBind; bind != "" && metricHandler != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricHandler)
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		r.metricsSrv = &http.Server{
			Addr:              bind,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := r.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				r.log.Error("metrics server failed", slog.String("error", err.Error()))
			}
		}()
		r.log.Info("metrics server started", slog.String("addr", bind))
	}

	emitters := make(pipeline.MultiEmitter, 0, len(observers)+1)
	for _, obs := range observers {
		emitters = append(emitters, obs)
	}

	if r.cfg.Bus.Enabled {
		embedded, err := natsserver.Start(r.cfg.Bus, r.log)
		if err != nil {
			return fmt.Errorf("start embedded bus: %w", err)
		}
		r.embedded = embedded

		client, err := bus.Connect(ctx, r.cfg.Bus, r.log)
		if err != nil {
			r.log.Warn("bus unavailable, session events stay local", slog.String("error", err.Error()))
		} else {
			r.busClient = client
			emitters = append(emitters, bus.NewEmitter(client, r.log))
		}
	}

	remoteClient := remote.NewClient(r.cfg.Remote, r.log)
	r.Pipeline = pipeline.New(remoteClient, emitters, r.log, pipeline.Options{
		MaskToken: r.cfg.Filter.MaskingToken,
	})

	device, err := record.NewDevice(r.cfg.Recording)
	if err != nil {
		return fmt.Errorf("init capture device: %w", err)
	}
	r.Recorder = record.NewController(device, r.cfg.Recording, r.log)

	r.Presenter = present.NewPresenter(remoteClient, r.log)
	r.State = NewApp(r.cfg.Filter.SeedWords)

	r.log.Info("runtime started", slog.String("app", r.cfg.AppName))
	return nil
}

// Shutdown releases runtime resources in reverse start order.
func (r *Runtime) Shutdown(ctx context.Context) {
	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil {
			r.log.Error("metrics shutdown error", slog.String("error", err.Error()))
		}
	}
	r.wg.Wait()

	r.busClient.Close()
	r.embedded.Shutdown()

	if r.telemetryClose != nil {
		if err := r.telemetryClose(ctx); err != nil {
			r.log.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}
	r.log.Info("runtime stopped")
}
