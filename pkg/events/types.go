package events

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event flowing through the system.
type EventType string

const (
	RecordingQueued    EventType = "recording.queued"
	RecordingCompleted EventType = "recording.completed"
	RecordingFailed    EventType = "recording.failed"
	RolesSwapped       EventType = "recording.roles_swapped"
)

// Envelope is the standard event wrapper published to the event queue.
type Envelope struct {
	ID          string            `json:"id"`
	Type        EventType         `json:"type"`
	Source      string            `json:"source"`
	RecordingID string            `json:"recording_id"`
	Timestamp   time.Time         `json:"timestamp"`
	Data        json.RawMessage   `json:"data"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// RecordingQueuedData is the payload for recording.queued events.
type RecordingQueuedData struct {
	Filename string `json:"filename"`
	Filepath string `json:"filepath"`
}

// RecordingCompletedData is the payload for recording.completed events.
type RecordingCompletedData struct {
	Filename    string  `json:"filename"`
	Language    string  `json:"language"`
	Duration    float64 `json:"duration"`
	NumSpeakers int     `json:"num_speakers"`
	ChannelMode string  `json:"channel_mode"`
	Segments    int     `json:"segments"`
}

// RecordingFailedData is the payload for recording.failed events.
type RecordingFailedData struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}
