package pipeline

import "fmt"

// Segment is a time-bounded slice of the transcript with its three text
// variants.
type Segment struct {
	Start      float64
	End        float64
	Original   string
	Simplified string
	Filtered   string
}

// Stats summarizes one processing run.
type Stats struct {
	SegmentCount       int
	SensitiveWordCount int
	AccuracyRate       string
	ProcessingSpeed    string
}

// Result is the immutable outcome of one successful processing session.
// ResultFileRef is empty on the simulated path; its presence discriminates
// real remote results from canned ones.
type Result struct {
	AudioFile      string
	Language       string
	Duration       string
	ProcessTime    string
	RealTimeFactor string
	FilterMethod   string

	OriginalText   string
	SimplifiedText string
	FilteredText   string

	Segments []Segment
	Stats    Stats

	ResultFileRef string
	Path          Path
}

// FormatClock renders a duration in seconds as mm:ss.
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
