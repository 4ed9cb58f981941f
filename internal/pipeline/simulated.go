package pipeline

import (
	"github.com/voxsift/voxsift-core/internal/audio"
	"github.com/voxsift/voxsift-core/internal/words"
)

// Canned transcript served by the simulated path. The content is fixed and
// independent of the actual audio so downstream rendering and export stay
// exercisable without a reachable backend.
const (
	simulatedText     = "今天天气真好，小狼很开心，我们一起去玩吧，感觉很快乐。"
	simulatedLanguage = "zh"
	simulatedDuration = "00:04"
	simulatedTime     = "2.3s"
	simulatedFactor   = "1.7x"
)

var simulatedSegments = []Segment{
	{Start: 0.0, End: 2.5, Original: "今天天气真好，小狼很开心"},
	{Start: 2.5, End: 4.0, Original: "我们一起去玩吧，感觉很快乐"},
}

// simulatedResult synthesizes the deterministic fallback result: the canned
// two-segment transcript with every sensitive word replaced by the masking
// token.
func simulatedResult(src *audio.Source, set *words.Set, method, maskToken string) *Result {
	segments := make([]Segment, len(simulatedSegments))
	for i, seg := range simulatedSegments {
		seg.Simplified = seg.Original
		seg.Filtered = set.Mask(seg.Original, maskToken)
		segments[i] = seg
	}

	return &Result{
		AudioFile:      src.DisplayName,
		Language:       simulatedLanguage,
		Duration:       simulatedDuration,
		ProcessTime:    simulatedTime,
		RealTimeFactor: simulatedFactor,
		FilterMethod:   method,
		OriginalText:   simulatedText,
		SimplifiedText: simulatedText,
		FilteredText:   set.Mask(simulatedText, maskToken),
		Segments:       segments,
		Stats: Stats{
			SegmentCount:       len(segments),
			SensitiveWordCount: set.CountOccurrences(simulatedText),
			AccuracyRate:       "95%",
			ProcessingSpeed:    simulatedFactor,
		},
		Path: PathSimulated,
	}
}
