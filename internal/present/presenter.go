// Package present projects processing results into display views and a
// plain-text export document.
package present

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/voxsift/voxsift-core/internal/pipeline"
	"github.com/voxsift/voxsift-core/internal/words"
)

// TextFetcher downloads a server-persisted text artifact by result-file
// reference.
type TextFetcher interface {
	FetchText(ctx context.Context, resultFile string) ([]byte, error)
}

// SummaryFields are the scalar descriptors of one result.
type SummaryFields struct {
	AudioFile      string
	Language       string
	Duration       string
	ProcessTime    string
	RealTimeFactor string
	FilterMethod   string
}

// SegmentView is one segment with sensitive words highlighted in the
// original and simplified variants. The filtered variant is shown as-is.
type SegmentView struct {
	Index      int
	TimeRange  string
	Original   string
	Simplified string
	Filtered   string
}

// View is the render output consumed by a display layer.
type View struct {
	Summary  SummaryFields
	Segments []SegmentView
}

// Presenter reads results; it never mutates them.
type Presenter struct {
	fetcher TextFetcher
	log     *slog.Logger

	// now is the export timestamp source, overridable in tests.
	now func() time.Time
}

// NewPresenter builds a presenter. fetcher may be nil when no remote
// artifact download is possible.
func NewPresenter(fetcher TextFetcher, log *slog.Logger) *Presenter {
	return &Presenter{fetcher: fetcher, log: log, now: time.Now}
}

// Render projects a result into summary fields and highlighted segment
// views.
func (p *Presenter) Render(result *pipeline.Result, set *words.Set) View {
	view := View{
		Summary: SummaryFields{
			AudioFile:      result.AudioFile,
			Language:       result.Language,
			Duration:       result.Duration,
			ProcessTime:    result.ProcessTime,
			RealTimeFactor: result.RealTimeFactor,
			FilterMethod:   pipeline.FilterMethodLabel(result.FilterMethod),
		},
	}
	for i, seg := range result.Segments {
		simplified := seg.Simplified
		if simplified == "" {
			simplified = seg.Original
		}
		view.Segments = append(view.Segments, SegmentView{
			Index:      i + 1,
			TimeRange:  fmt.Sprintf("[%.2fs - %.2fs]", seg.Start, seg.End),
			Original:   set.Highlight(seg.Original),
			Simplified: set.Highlight(simplified),
			Filtered:   seg.Filtered,
		})
	}
	return view
}

// ExportText produces the downloadable plain-text document for a result.
// When the result carries a server-side file reference the persisted
// artifact is fetched first; any fetch failure falls back to local
// generation instead of failing the export.
func (p *Presenter) ExportText(ctx context.Context, result *pipeline.Result, set *words.Set) []byte {
	if result.ResultFileRef != "" && p.fetcher != nil {
		data, err := p.fetcher.FetchText(ctx, result.ResultFileRef)
		if err == nil && len(data) > 0 {
			return data
		}
		if err != nil {
			p.log.Warn("export fetch failed, generating locally",
				slog.String("result_file", result.ResultFileRef),
				slog.String("error", err.Error()))
		}
	}
	return []byte(p.generateDocument(result, set))
}

// ExportFilename returns a timestamped name for the export artifact.
func (p *Presenter) ExportFilename() string {
	return fmt.Sprintf("voxsift_result_%d.txt", p.now().UnixMilli())
}

func (p *Presenter) generateDocument(result *pipeline.Result, set *words.Set) string {
	var b strings.Builder

	simplified := result.SimplifiedText
	if simplified == "" {
		simplified = result.OriginalText
	}

	fmt.Fprintf(&b, "Speech Sensitive-Word Filter Result\n%s\n\n", strings.Repeat("=", 50))
	fmt.Fprintf(&b, "Generated: %s\n", p.now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Audio file: %s\n", result.AudioFile)
	fmt.Fprintf(&b, "Sensitive words: %s\n", strings.Join(set.Words(), ", "))
	fmt.Fprintf(&b, "Detected language: %s\n", result.Language)
	fmt.Fprintf(&b, "Filter method: %s\n\n", pipeline.FilterMethodLabel(result.FilterMethod))

	fmt.Fprintf(&b, "Simplified text:\n%s\n%s\n\n", strings.Repeat("-", 30), simplified)
	fmt.Fprintf(&b, "Filtered text:\n%s\n%s\n\n", strings.Repeat("-", 30), result.FilteredText)

	fmt.Fprintf(&b, "Segment comparison:\n%s\n", strings.Repeat("-", 30))
	for i, seg := range result.Segments {
		segSimplified := seg.Simplified
		if segSimplified == "" {
			segSimplified = seg.Original
		}
		fmt.Fprintf(&b, "Segment %d: [%.2fs - %.2fs]\n", i+1, seg.Start, seg.End)
		fmt.Fprintf(&b, "  Original:   %s\n", seg.Original)
		fmt.Fprintf(&b, "  Simplified: %s\n", segSimplified)
		fmt.Fprintf(&b, "  Filtered:   %s\n\n", seg.Filtered)
	}

	fmt.Fprintf(&b, "Statistics:\n%s\n", strings.Repeat("-", 30))
	fmt.Fprintf(&b, "Audio duration: %s\n", result.Duration)
	fmt.Fprintf(&b, "Process time: %s\n", result.ProcessTime)
	fmt.Fprintf(&b, "Real-time factor: %s\n", result.RealTimeFactor)
	fmt.Fprintf(&b, "Segment count: %d\n", len(result.Segments))
	fmt.Fprintf(&b, "Filter method: %s\n", pipeline.FilterMethodLabel(result.FilterMethod))

	return b.String()
}
