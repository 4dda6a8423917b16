package store

import (
	"database/sql"

	"github.com/pitabwire/frame/data"
)

// Recording status values. A recording is done only when a full transcript
// exists and is the most recent produced for it.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusError      = "error"
)

// Recording tracks one audio file's processing lifecycle. The filesystem
// path is the natural key; re-detecting the same path reuses the record.
type Recording struct {
	data.BaseModel

	Filename        string          `gorm:"type:varchar(255);not null"              json:"filename"`
	Filepath        string          `gorm:"type:varchar(1024);not null;uniqueIndex" json:"filepath"`
	DurationSeconds sql.NullFloat64 `json:"duration_seconds,omitempty"`
	ProcessedAt     sql.NullTime    `json:"processed_at,omitempty"`
	Status          string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ErrorMessage    string          `gorm:"type:text" json:"error_message,omitempty"`
}

func (Recording) TableName() string { return "recordings" }

// Transcript is the rendered full text of one processed recording.
type Transcript struct {
	data.BaseModel

	RecordingID string `gorm:"type:varchar(50);not null;index:idx_tr_recording" json:"recording_id"`
	FullText    string `gorm:"type:text"         json:"full_text"`
	Language    string `gorm:"type:varchar(10)"  json:"language"`
	ModelUsed   string `gorm:"type:varchar(100)" json:"model_used,omitempty"`
}

func (Transcript) TableName() string { return "transcripts" }

// Segment is one speaker-attributed piece of a transcript.
type Segment struct {
	data.BaseModel

	TranscriptID string          `gorm:"type:varchar(50);not null;index:idx_seg_transcript" json:"transcript_id"`
	Role         string          `gorm:"type:varchar(20);not null" json:"role"`
	Text         string          `gorm:"type:text;not null"        json:"text"`
	StartTime    float64         `gorm:"not null"                  json:"start_time"`
	EndTime      float64         `gorm:"not null"                  json:"end_time"`
	Confidence   sql.NullFloat64 `json:"confidence,omitempty"`
}

func (Segment) TableName() string { return "segments" }
