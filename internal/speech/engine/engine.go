package engine

import "context"

// Word is a single recognized word with its timing and probability.
type Word struct {
	Word        string  `json:"word"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float64 `json:"probability"`
}

// TranscriptionSegment is one timed piece of recognized speech.
type TranscriptionSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words,omitempty"`
}

// TranscriptionResult is the full output of one recognition call.
type TranscriptionResult struct {
	Segments            []TranscriptionSegment `json:"segments"`
	Language            string                 `json:"language"`
	LanguageProbability float64                `json:"language_probability"`
	Duration            float64                `json:"duration"`
}

// DiarizationSegment is one contiguous region attributed to a single
// anonymous speaker identity.
type DiarizationSegment struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// DiarizationResult is the full output of one diarization call,
// ordered by segment start time.
type DiarizationResult struct {
	Segments    []DiarizationSegment `json:"segments"`
	NumSpeakers int                  `json:"num_speakers"`
}

// TranscribeOptions tune a single recognition call.
type TranscribeOptions struct {
	Language string
	BeamSize int
}

// Transcriber converts an audio file into timestamped text segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, opts TranscribeOptions) (*TranscriptionResult, error)
}

// Diarizer determines which anonymous speaker identity is active during
// each interval of an audio file.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string, numSpeakers int) (*DiarizationResult, error)
}
