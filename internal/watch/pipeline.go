package watch

import "context"

// Pipeline runs the full capture-processing chain (transcription, frame
// extraction, report generation) for one stabilized recording.
type Pipeline interface {
	// Run processes a single recording and returns what it produced.
	Run(ctx context.Context, opts PipelineOptions) (*Result, error)
}

// PipelineOptions configures one pipeline run.
type PipelineOptions struct {
	VideoPath  string
	OutputDir  string
	SkipFrames bool
	Verbose    bool
}

// Segment is one timed span of transcript text.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Result reports what the pipeline produced for one recording.
type Result struct {
	OutputPath         string
	TranscriptSegments []Segment
	ExtractedFrames    []string
	DurationSeconds    float64
}
