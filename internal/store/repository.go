package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pitabwire/frame/datastore/pool"

	"github.com/callscribe/callscribe/internal/pipeline"
)

// ErrNotFound is returned when a recording or transcript does not exist.
var ErrNotFound = errors.New("not found")

// Repository provides persistence for recordings, transcripts, and segments.
type Repository struct {
	pool pool.Pool
}

// NewRepository creates a repository over the given datastore pool.
func NewRepository(pool pool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context, readOnly bool) *gorm.DB {
	return r.pool.DB(ctx, readOnly)
}

// Migrate creates the schema for all repository models.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db(ctx, false).AutoMigrate(&Recording{}, &Transcript{}, &Segment{})
}

// GetByPath returns the recording keyed by filesystem path.
func (r *Repository) GetByPath(ctx context.Context, path string) (*Recording, error) {
	var rec Recording
	err := r.db(ctx, true).Where("filepath = ?", path).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetByID returns a recording by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Recording, error) {
	var rec Recording
	err := r.db(ctx, true).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create persists a new recording.
func (r *Repository) Create(ctx context.Context, rec *Recording) error {
	return r.db(ctx, false).Create(rec).Error
}

// Reset returns a recording to pending, clearing any previous error
// message and completion stamp.
func (r *Repository) Reset(ctx context.Context, id string) error {
	return r.db(ctx, false).Model(&Recording{}).Where("id = ?", id).Updates(map[string]any{
		"status":        StatusPending,
		"error_message": "",
		"processed_at":  sql.NullTime{},
	}).Error
}

// MarkProcessing moves a recording to processing and deletes any prior
// transcript data: processing replaces, never appends.
func (r *Repository) MarkProcessing(ctx context.Context, id string) error {
	return r.db(ctx, false).Transaction(func(tx *gorm.DB) error {
		if err := deleteTranscripts(tx, id); err != nil {
			return err
		}
		return tx.Model(&Recording{}).Where("id = ?", id).
			Update("status", StatusProcessing).Error
	})
}

func deleteTranscripts(tx *gorm.DB, recordingID string) error {
	var transcripts []Transcript
	if err := tx.Where("recording_id = ?", recordingID).Find(&transcripts).Error; err != nil {
		return err
	}
	for _, transcript := range transcripts {
		if err := tx.Where("transcript_id = ?", transcript.ID).Delete(&Segment{}).Error; err != nil {
			return err
		}
	}
	return tx.Where("recording_id = ?", recordingID).Delete(&Transcript{}).Error
}

// SaveResult persists a pipeline result and marks the recording done, all
// in one transaction so a failure leaves no partial transcript behind.
func (r *Repository) SaveResult(ctx context.Context, id string, result *pipeline.Result, modelUsed string) error {
	return r.db(ctx, false).Transaction(func(tx *gorm.DB) error {
		transcript := Transcript{
			RecordingID: id,
			FullText:    result.FullText,
			Language:    result.Language,
			ModelUsed:   modelUsed,
		}
		if err := tx.Create(&transcript).Error; err != nil {
			return fmt.Errorf("create transcript: %w", err)
		}

		for _, seg := range result.Segments {
			row := Segment{
				TranscriptID: transcript.ID,
				Role:         string(seg.Role),
				Text:         seg.Text,
				StartTime:    seg.Start,
				EndTime:      seg.End,
			}
			if seg.Confidence != nil {
				row.Confidence = sql.NullFloat64{Float64: *seg.Confidence, Valid: true}
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create segment: %w", err)
			}
		}

		return tx.Model(&Recording{}).Where("id = ?", id).Updates(map[string]any{
			"status":           StatusDone,
			"duration_seconds": sql.NullFloat64{Float64: result.Duration, Valid: true},
			"processed_at":     sql.NullTime{Time: time.Now().UTC(), Valid: true},
			"error_message":    "",
		}).Error
	})
}

// MarkError records a failed attempt with the error message captured
// verbatim.
func (r *Repository) MarkError(ctx context.Context, id string, message string) error {
	return r.db(ctx, false).Model(&Recording{}).Where("id = ?", id).Updates(map[string]any{
		"status":        StatusError,
		"error_message": message,
	}).Error
}

// List returns all recordings, newest first.
func (r *Repository) List(ctx context.Context) ([]Recording, error) {
	var recs []Recording
	err := r.db(ctx, true).Order("created_at DESC").Find(&recs).Error
	return recs, err
}

// GetTranscript returns the transcript and its ordered segments for a
// recording, or ErrNotFound when none exists.
func (r *Repository) GetTranscript(ctx context.Context, recordingID string) (*Transcript, []Segment, error) {
	var transcript Transcript
	err := r.db(ctx, true).Where("recording_id = ?", recordingID).First(&transcript).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var segments []Segment
	err = r.db(ctx, true).
		Where("transcript_id = ?", transcript.ID).
		Order("start_time ASC").
		Find(&segments).Error
	if err != nil {
		return nil, nil, err
	}
	return &transcript, segments, nil
}

// SegmentsByRole returns a recording's segments filtered by role, ordered
// by start time. An empty role returns every segment.
func (r *Repository) SegmentsByRole(ctx context.Context, recordingID string, role pipeline.Role) ([]Segment, error) {
	transcript, _, err := r.GetTranscript(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	query := r.db(ctx, true).Where("transcript_id = ?", transcript.ID)
	if role != "" {
		query = query.Where("role = ?", string(role))
	}
	var segments []Segment
	err = query.Order("start_time ASC").Find(&segments).Error
	return segments, err
}

// SwapRoles exchanges agent and customer on every segment of a recording
// and re-renders the transcript text. Segment order and timestamps are
// untouched; only labels and the rendered text change.
func (r *Repository) SwapRoles(ctx context.Context, recordingID string) error {
	return r.db(ctx, false).Transaction(func(tx *gorm.DB) error {
		var transcript Transcript
		err := tx.Where("recording_id = ?", recordingID).First(&transcript).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var segments []Segment
		if err := tx.Where("transcript_id = ?", transcript.ID).
			Order("start_time ASC").Find(&segments).Error; err != nil {
			return err
		}

		aligned := make([]pipeline.AlignedSegment, 0, len(segments))
		for i := range segments {
			swapped := pipeline.Role(segments[i].Role).Other()
			segments[i].Role = string(swapped)
			if err := tx.Model(&Segment{}).Where("id = ?", segments[i].ID).
				Update("role", segments[i].Role).Error; err != nil {
				return err
			}
			aligned = append(aligned, pipeline.AlignedSegment{
				Role:  swapped,
				Text:  segments[i].Text,
				Start: segments[i].StartTime,
				End:   segments[i].EndTime,
			})
		}

		return tx.Model(&Transcript{}).Where("id = ?", transcript.ID).
			Update("full_text", pipeline.RenderTranscript(aligned)).Error
	})
}

// SearchHit is one full-text search match.
type SearchHit struct {
	RecordingID string  `json:"recording_id"`
	Filename    string  `json:"filename"`
	MatchType   string  `json:"match_type"`
	Role        string  `json:"role,omitempty"`
	Text        string  `json:"text"`
	StartTime   float64 `json:"start_time,omitempty"`
	EndTime     float64 `json:"end_time,omitempty"`
}

// Search runs a case-insensitive substring search over transcript text and
// individual segments.
func (r *Repository) Search(ctx context.Context, query string) ([]SearchHit, error) {
	pattern := "%" + query + "%"
	db := r.db(ctx, true)

	var transcriptHits []struct {
		Transcript
		Filename string
	}
	err := db.Model(&Transcript{}).
		Select("transcripts.*, recordings.filename").
		Joins("JOIN recordings ON recordings.id = transcripts.recording_id").
		Where("transcripts.full_text ILIKE ?", pattern).
		Scan(&transcriptHits).Error
	if err != nil {
		return nil, err
	}

	var segmentHits []struct {
		Segment
		RecordingID string
		Filename    string
	}
	err = db.Model(&Segment{}).
		Select("segments.*, transcripts.recording_id, recordings.filename").
		Joins("JOIN transcripts ON transcripts.id = segments.transcript_id").
		Joins("JOIN recordings ON recordings.id = transcripts.recording_id").
		Where("segments.text ILIKE ?", pattern).
		Scan(&segmentHits).Error
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(transcriptHits)+len(segmentHits))
	for _, h := range transcriptHits {
		hits = append(hits, SearchHit{
			RecordingID: h.RecordingID,
			Filename:    h.Filename,
			MatchType:   "transcript",
			Text:        h.FullText,
		})
	}
	for _, h := range segmentHits {
		hits = append(hits, SearchHit{
			RecordingID: h.RecordingID,
			Filename:    h.Filename,
			MatchType:   "segment",
			Role:        h.Role,
			Text:        h.Text,
			StartTime:   h.StartTime,
			EndTime:     h.EndTime,
		})
	}
	return hits, nil
}

// Stats summarizes the recording corpus.
type Stats struct {
	TotalRecordings    int64    `json:"total_recordings"`
	Done               int64    `json:"done"`
	Pending            int64    `json:"pending"`
	Processing         int64    `json:"processing"`
	Errors             int64    `json:"errors"`
	AvgDurationSeconds *float64 `json:"avg_duration_seconds,omitempty"`
}

// GetStats returns per-status counts and the average recording duration.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	db := r.db(ctx, true)
	var stats Stats

	if err := db.Model(&Recording{}).Count(&stats.TotalRecordings).Error; err != nil {
		return nil, err
	}
	counts := map[string]*int64{
		StatusDone:       &stats.Done,
		StatusPending:    &stats.Pending,
		StatusProcessing: &stats.Processing,
		StatusError:      &stats.Errors,
	}
	for status, dest := range counts {
		if err := db.Model(&Recording{}).Where("status = ?", status).Count(dest).Error; err != nil {
			return nil, err
		}
	}

	var avg sql.NullFloat64
	err := db.Model(&Recording{}).
		Where("duration_seconds IS NOT NULL").
		Select("AVG(duration_seconds)").
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	if avg.Valid {
		stats.AvgDurationSeconds = &avg.Float64
	}
	return &stats, nil
}
