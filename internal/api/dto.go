package api

// ErrorResponse is the JSON body for any non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RecordingResponse is the API view of a recording's lifecycle state.
type RecordingResponse struct {
	ID              string   `json:"id"`
	Filename        string   `json:"filename"`
	Filepath        string   `json:"filepath"`
	Status          string   `json:"status"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	ProcessedAt     string   `json:"processed_at,omitempty"`
	ErrorMessage    string   `json:"error_message,omitempty"`
	CreatedAt       string   `json:"created_at"`
	ModifiedAt      string   `json:"modified_at"`
}

// SegmentResponse is one speaker-attributed transcript line.
type SegmentResponse struct {
	Role       string   `json:"role"`
	Text       string   `json:"text"`
	StartTime  float64  `json:"start_time"`
	EndTime    float64  `json:"end_time"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// TranscriptResponse is a recording together with its rendered transcript.
type TranscriptResponse struct {
	Recording RecordingResponse `json:"recording"`
	FullText  string            `json:"full_text"`
	Language  string            `json:"language,omitempty"`
	ModelUsed string            `json:"model_used,omitempty"`
	Segments  []SegmentResponse `json:"segments"`
}

// ReprocessResponse acknowledges a queued reprocess request.
type ReprocessResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
