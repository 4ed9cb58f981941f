package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/voxsift/voxsift-core/internal/audio"
	"github.com/voxsift/voxsift-core/internal/config"
	"github.com/voxsift/voxsift-core/internal/pipeline"
	"github.com/voxsift/voxsift-core/internal/protocol"
	"github.com/voxsift/voxsift-core/internal/record"
	"github.com/voxsift/voxsift-core/internal/runtime"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath  string
		inputPath   string
		doRecord    bool
		durationS   int
		extraWords  string
		method      string
		outDir      string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "voxsift.yaml", "Path to configuration file")
	flag.StringVar(&inputPath, "input", "", "Audio file to process")
	flag.BoolVar(&doRecord, "record", false, "Capture audio from the microphone instead of reading a file")
	flag.IntVar(&durationS, "duration", 0, "Recording duration in seconds (clamped to 1..300)")
	flag.StringVar(&extraWords, "words", "", "Comma-separated sensitive words to add to the configured set")
	flag.StringVar(&method, "method", "", "Filter method name")
	flag.StringVar(&outDir, "out", "", "Directory for the exported result document")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Telemetry.LogLevel)}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, inputPath, doRecord, durationS, extraWords, method, outDir); err != nil {
		logger.Error("run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, inputPath string, doRecord bool, durationS int, extraWords, method, outDir string) error {
	rt := runtime.New(cfg, logger)
	observer := pipeline.EmitterFunc(func(ev protocol.SessionEvent) {
		switch ev.Kind {
		case protocol.EventProgress:
			logger.Info("progress", slog.Int("percent", ev.Percent), slog.String("message", ev.Message))
		case protocol.EventStage:
			logger.Info("stage", slog.String("stage", ev.Stage), slog.String("status", ev.Status))
		}
	})
	if err := rt.Start(ctx, observer); err != nil {
		return err
	}
	defer rt.Shutdown(context.Background())

	src, err := acquireSource(ctx, rt, logger, inputPath, doRecord, durationS)
	if err != nil {
		return err
	}
	rt.State.SetSource(src)

	for _, word := range strings.Split(extraWords, ",") {
		rt.State.AddWord(word)
	}
	if method == "" {
		method = cfg.Filter.DefaultMethod
	}

	result, err := rt.Pipeline.Process(ctx, src, rt.State.Words(), method)
	if err != nil {
		var perr *pipeline.ProcessingError
		if errors.As(err, &perr) {
			return fmt.Errorf("processing failed at %s stage: %w", perr.Stage, err)
		}
		return err
	}
	rt.State.SetResult(result)

	view := rt.Presenter.Render(result, rt.State.Words())
	logger.Info("session complete",
		slog.String("path", string(result.Path)),
		slog.String("language", view.Summary.Language),
		slog.String("duration", view.Summary.Duration),
		slog.Int("segments", result.Stats.SegmentCount),
		slog.Int("sensitive_words", result.Stats.SensitiveWordCount))

	if outDir == "" {
		outDir = cfg.Export.Directory
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	outPath := filepath.Join(outDir, rt.Presenter.ExportFilename())
	if err := os.WriteFile(outPath, rt.Presenter.ExportText(ctx, result, rt.State.Words()), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	logger.Info("result exported", slog.String("path", outPath))
	return nil
}

func acquireSource(ctx context.Context, rt *runtime.Runtime, logger *slog.Logger, inputPath string, doRecord bool, durationS int) (*audio.Source, error) {
	if doRecord {
		return recordSource(ctx, rt.Recorder, logger, durationS)
	}
	if inputPath == "" {
		return nil, fmt.Errorf("no audio input: pass -input or -record")
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return audio.NewUploaded(filepath.Base(inputPath), "", data)
}

func recordSource(ctx context.Context, rec *record.Controller, logger *slog.Logger, durationS int) (*audio.Source, error) {
	if durationS == 0 {
		durationS = rec.DefaultDuration()
	}
	done := make(chan *audio.Source, 1)
	rec.OnComplete = func(src *audio.Source) { done <- src }
	rec.OnTick = func(remaining string) {
		logger.Debug("recording", slog.String("remaining", remaining))
	}

	if err := rec.Start(ctx, durationS); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		if src, err := rec.Stop(); err != nil || src != nil {
			return src, err
		}
		return nil, ctx.Err()
	case src := <-done:
		if src == nil {
			return nil, fmt.Errorf("capture produced no audio")
		}
		return src, nil
	}
}

func logLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
