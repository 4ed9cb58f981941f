// Package pipeline drives one audio source through the three-stage
// processing model (preprocess, recognize, filter), delegating to the remote
// speech service when it is reachable and degrading to a local simulated
// path when it is not.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/voxsift/voxsift-core/internal/audio"
	"github.com/voxsift/voxsift-core/internal/protocol"
	"github.com/voxsift/voxsift-core/internal/remote"
	"github.com/voxsift/voxsift-core/internal/words"
)

const defaultModelLoadPause = time.Second

// RemoteService is the slice of the remote client the orchestrator needs.
type RemoteService interface {
	Reachable(ctx context.Context) bool
	Upload(ctx context.Context, src *audio.Source) (string, error)
	Process(ctx context.Context, req remote.ProcessRequest) (*remote.ProcessResponse, error)
}

// Options tunes orchestrator behavior. Zero values select production
// defaults.
type Options struct {
	MaskToken      string
	ProgressTick   time.Duration
	ProgressHold   time.Duration
	ModelLoadPause time.Duration
}

// Orchestrator owns the active processing session. At most one session is in
// flight; overlapping Process calls fail with ErrBusy.
type Orchestrator struct {
	remote  RemoteService
	emitter Emitter
	log     *slog.Logger
	opts    Options

	busy atomic.Bool

	tracer   trace.Tracer
	sessions metric.Int64Counter
	duration metric.Float64Histogram
}

// New builds an orchestrator. remote may be nil, which forces the simulated
// path.
func New(remoteSvc RemoteService, emitter Emitter, log *slog.Logger, opts Options) *Orchestrator {
	if opts.MaskToken == "" {
		opts.MaskToken = "***"
	}
	if opts.ModelLoadPause == 0 {
		opts.ModelLoadPause = defaultModelLoadPause
	}

	meter := otel.Meter("voxsift/pipeline")
	sessions, _ := meter.Int64Counter("pipeline.sessions",
		metric.WithDescription("Processing sessions by path and outcome"))
	duration, _ := meter.Float64Histogram("pipeline.session.duration",
		metric.WithDescription("Processing session duration in seconds"),
		metric.WithUnit("s"))

	return &Orchestrator{
		remote:   remoteSvc,
		emitter:  emitter,
		log:      log,
		opts:     opts,
		tracer:   otel.Tracer("voxsift/pipeline"),
		sessions: sessions,
		duration: duration,
	}
}

// Busy reports whether a session is currently in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Process runs one full session for the given source, word set, and
// filter-method name. The caller must not pass a nil or empty source. On
// failure no result is published and the orchestrator returns to the
// not-processing state.
func (o *Orchestrator) Process(ctx context.Context, src *audio.Source, set *words.Set, method string) (*Result, error) {
	if src == nil || len(src.Bytes) == 0 {
		return nil, ErrNoInput
	}
	if !o.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.busy.Store(false)

	path := PathSimulated
	if o.remote != nil && o.remote.Reachable(ctx) {
		path = PathRemote
	}

	ctx, span := o.tracer.Start(ctx, "pipeline.process",
		trace.WithAttributes(
			attribute.String("pipeline.path", string(path)),
			attribute.String("pipeline.filter_method", method),
		))
	defer span.End()

	session := newSession(path, o.emitter, o.log)
	o.log.Info("processing session started",
		slog.String("session", session.ID()),
		slog.String("path", string(path)),
		slog.String("audio", src.DisplayName),
		slog.String("method", method))

	started := time.Now()
	var (
		result *Result
		err    error
	)
	if path == PathRemote {
		result, err = o.runRemote(ctx, session, src, set, method)
	} else {
		result, err = o.runSimulated(ctx, session, src, set, method)
	}

	elapsed := time.Since(started).Seconds()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	o.sessions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("path", string(path)),
		attribute.String("outcome", outcome)))
	o.duration.Record(ctx, elapsed, metric.WithAttributes(
		attribute.String("path", string(path))))

	if err != nil {
		span.RecordError(err)
		o.log.Error("processing session failed",
			slog.String("session", session.ID()),
			slog.String("error", err.Error()))
		session.emit(protocol.SessionEvent{
			Kind:  protocol.EventFailure,
			Error: err.Error(),
		})
		return nil, err
	}

	o.log.Info("processing session completed",
		slog.String("session", session.ID()),
		slog.Int("segments", len(result.Segments)))
	session.emit(protocol.SessionEvent{
		Kind:    protocol.EventResult,
		Percent: session.Percent(),
		Message: result.FilteredText,
	})
	return result, nil
}

func (o *Orchestrator) reporter(session *Session) *Reporter {
	rep := NewReporter(session.setProgress)
	if o.opts.ProgressTick > 0 {
		rep.Tick = o.opts.ProgressTick
	}
	if o.opts.ProgressHold > 0 {
		rep.Hold = o.opts.ProgressHold
	}
	return rep
}

func (o *Orchestrator) runRemote(ctx context.Context, session *Session, src *audio.Source, set *words.Set, method string) (*Result, error) {
	rep := o.reporter(session)

	if err := session.markStage(StagePreprocessing, StatusProcessing); err != nil {
		return nil, err
	}
	if err := rep.Animate(ctx, 0, 10, "uploading audio file"); err != nil {
		return nil, err
	}
	fileRef, err := o.remote.Upload(ctx, src)
	if err != nil {
		return nil, &ProcessingError{Stage: StagePreprocessing, Message: "audio upload failed", Err: err}
	}
	if err := session.markStage(StagePreprocessing, StatusCompleted); err != nil {
		return nil, err
	}

	if err := rep.Animate(ctx, 10, 25, "loading recognition model"); err != nil {
		return nil, err
	}
	if err := sleepCtx(ctx, o.opts.ModelLoadPause); err != nil {
		return nil, err
	}

	if err := session.markStage(StageRecognition, StatusProcessing); err != nil {
		return nil, err
	}
	if err := rep.Animate(ctx, 25, 40, "transcribing audio"); err != nil {
		return nil, err
	}
	if err := rep.Animate(ctx, 40, 70, "running speech recognition"); err != nil {
		return nil, err
	}

	if err := rep.Animate(ctx, 70, 80, "applying sensitive-word filter"); err != nil {
		return nil, err
	}
	resp, err := o.remote.Process(ctx, remote.ProcessRequest{
		AudioFile:      fileRef,
		SensitiveWords: set.Words(),
		FilterMethod:   method,
	})
	if err != nil {
		message := "processing request failed"
		var serverErr *remote.ServerError
		if errors.As(err, &serverErr) {
			message = serverErr.Message
		}
		return nil, &ProcessingError{Stage: StageRecognition, Message: message, Err: err}
	}

	if err := session.markStage(StageRecognition, StatusCompleted); err != nil {
		return nil, err
	}
	if err := session.markStage(StageFiltering, StatusProcessing); err != nil {
		return nil, err
	}
	if err := session.markStage(StageFiltering, StatusCompleted); err != nil {
		return nil, err
	}

	if err := rep.Animate(ctx, 80, 95, "generating results"); err != nil {
		return nil, err
	}
	if err := rep.Animate(ctx, 95, 100, "processing complete"); err != nil {
		return nil, err
	}

	return resultFromResponse(resp, method), nil
}

func (o *Orchestrator) runSimulated(ctx context.Context, session *Session, src *audio.Source, set *words.Set, method string) (*Result, error) {
	rep := o.reporter(session)

	if err := session.markStage(StagePreprocessing, StatusProcessing); err != nil {
		return nil, err
	}
	if err := rep.Animate(ctx, 0, 30, "preprocessing audio file"); err != nil {
		return nil, err
	}
	if err := session.markStage(StagePreprocessing, StatusCompleted); err != nil {
		return nil, err
	}

	if err := session.markStage(StageRecognition, StatusProcessing); err != nil {
		return nil, err
	}
	if err := rep.Animate(ctx, 30, 70, "running speech recognition"); err != nil {
		return nil, err
	}
	if err := session.markStage(StageRecognition, StatusCompleted); err != nil {
		return nil, err
	}

	if err := session.markStage(StageFiltering, StatusProcessing); err != nil {
		return nil, err
	}
	if err := rep.Animate(ctx, 70, 100, "filtering sensitive words"); err != nil {
		return nil, err
	}
	if err := session.markStage(StageFiltering, StatusCompleted); err != nil {
		return nil, err
	}

	return simulatedResult(src, set, method, o.opts.MaskToken), nil
}

// resultFromResponse copies the server payload field-for-field into an
// immutable Result.
func resultFromResponse(resp *remote.ProcessResponse, method string) *Result {
	segments := make([]Segment, len(resp.Segments))
	for i, seg := range resp.Segments {
		segments[i] = Segment{
			Start:      seg.Start,
			End:        seg.End,
			Original:   seg.Original,
			Simplified: seg.Simplified,
			Filtered:   seg.Filtered,
		}
	}
	filterMethod := resp.FilterMethod
	if filterMethod == "" {
		filterMethod = method
	}
	return &Result{
		AudioFile:      resp.AudioFile,
		Language:       resp.Language,
		Duration:       resp.Duration,
		ProcessTime:    resp.ProcessTime,
		RealTimeFactor: resp.RealTimeFactor,
		FilterMethod:   filterMethod,
		OriginalText:   resp.OriginalText,
		SimplifiedText: resp.SimplifiedText,
		FilteredText:   resp.FilteredText,
		Segments:       segments,
		Stats: Stats{
			SegmentCount:       resp.Stats.SegmentCount,
			SensitiveWordCount: resp.Stats.SensitiveWordCount,
			AccuracyRate:       resp.Stats.AccuracyRate,
			ProcessingSpeed:    resp.Stats.ProcessingSpeed,
		},
		ResultFileRef: resp.ResultFile,
		Path:          PathRemote,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// FilterMethodLabel maps a filter-method identifier to its display name.
// Unknown identifiers pass through unchanged.
func FilterMethodLabel(method string) string {
	switch method {
	case "DFA":
		return "DFA (deterministic finite automaton)"
	case "aho_corasick":
		return "Aho-Corasick automaton"
	case "trie_tree":
		return "Trie tree"
	case "replace":
		return "String replace"
	case "regular_expression":
		return "Regular expression"
	default:
		return method
	}
}
