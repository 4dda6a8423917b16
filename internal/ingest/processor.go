package ingest

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/pitabwire/util"

	"github.com/callscribe/callscribe/internal/pipeline"
	"github.com/callscribe/callscribe/internal/store"
	"github.com/callscribe/callscribe/pkg/events"
)

// Store is the slice of the repository the lifecycle controller needs.
type Store interface {
	GetByPath(ctx context.Context, path string) (*store.Recording, error)
	Create(ctx context.Context, rec *store.Recording) error
	Reset(ctx context.Context, id string) error
	MarkProcessing(ctx context.Context, id string) error
	SaveResult(ctx context.Context, id string, result *pipeline.Result, modelUsed string) error
	MarkError(ctx context.Context, id string, message string) error
}

// Runner produces a transcript for one audio file.
type Runner interface {
	Process(ctx context.Context, path string) (*pipeline.Result, error)
}

// Processor drives one recording at a time through the lifecycle state
// machine: pending, processing, then done or error. Failures never
// propagate past this boundary; they end up in the recording's status.
type Processor struct {
	store     Store
	runner    Runner
	pub       *events.Publisher
	modelUsed string

	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

// NewProcessor creates a lifecycle controller.
func NewProcessor(st Store, runner Runner, pub *events.Publisher, modelUsed string) *Processor {
	return &Processor{
		store:     st,
		runner:    runner,
		pub:       pub,
		modelUsed: modelUsed,
		inflight:  make(map[string]struct{}),
	}
}

// acquire claims a path for exclusive processing. Two workers can observe
// the same recording at once (watcher plus on-demand reprocess); only one
// may run it.
func (p *Processor) acquire(path string) bool {
	p.inflightMu.Lock()
	defer p.inflightMu.Unlock()
	if _, busy := p.inflight[path]; busy {
		return false
	}
	p.inflight[path] = struct{}{}
	return true
}

func (p *Processor) release(path string) {
	p.inflightMu.Lock()
	delete(p.inflight, path)
	p.inflightMu.Unlock()
}

// Process runs the full lifecycle for the audio file at path and returns
// the recording's final status. Re-detections of a done recording are
// skipped; any other existing state is reset and retried.
func (p *Processor) Process(ctx context.Context, path string) string {
	if !p.acquire(path) {
		slog.Info("recording already being processed, skipping", slog.String("path", path))
		return store.StatusProcessing
	}
	defer p.release(path)

	rec, err := p.ensureRecording(ctx, path)
	if err != nil {
		util.Log(ctx).WithError(err).Error("preparing recording record")
		return store.StatusError
	}
	if rec == nil {
		// Already done; the idempotent re-detection guard.
		return store.StatusDone
	}

	if err := p.store.MarkProcessing(ctx, rec.ID); err != nil {
		util.Log(ctx).WithError(err).Error("marking recording processing")
		return store.StatusError
	}

	result, err := p.runner.Process(ctx, path)
	if err != nil {
		return p.fail(ctx, rec, err)
	}

	if err := p.store.SaveResult(ctx, rec.ID, result, p.modelUsed); err != nil {
		return p.fail(ctx, rec, err)
	}

	slog.Info("recording processed",
		slog.String("recording_id", rec.ID),
		slog.String("filename", rec.Filename),
		slog.Int("segments", len(result.Segments)),
		slog.String("mode", string(result.ChannelMode)))

	p.pub.Emit(ctx, events.RecordingCompleted, rec.ID, events.RecordingCompletedData{
		Filename:    rec.Filename,
		Language:    result.Language,
		Duration:    result.Duration,
		NumSpeakers: result.NumSpeakers,
		ChannelMode: string(result.ChannelMode),
		Segments:    len(result.Segments),
	})
	return store.StatusDone
}

// ensureRecording creates or resets the record for path. A nil recording
// with nil error means the path is already done and should be skipped.
func (p *Processor) ensureRecording(ctx context.Context, path string) (*store.Recording, error) {
	rec, err := p.store.GetByPath(ctx, path)
	switch {
	case err == store.ErrNotFound:
		rec = &store.Recording{
			Filename: filepath.Base(path),
			Filepath: path,
			Status:   store.StatusPending,
		}
		if err := p.store.Create(ctx, rec); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case rec.Status == store.StatusDone:
		slog.Info("skipping already-processed recording", slog.String("path", path))
		return nil, nil
	default:
		if err := p.store.Reset(ctx, rec.ID); err != nil {
			return nil, err
		}
	}

	p.pub.Emit(ctx, events.RecordingQueued, rec.ID, events.RecordingQueuedData{
		Filename: rec.Filename,
		Filepath: rec.Filepath,
	})
	return rec, nil
}

// fail moves the recording to error with the message captured verbatim.
// The failed attempt's transcript writes were already rolled back.
func (p *Processor) fail(ctx context.Context, rec *store.Recording, cause error) string {
	util.Log(ctx).WithError(cause).Error("processing recording failed")
	if err := p.store.MarkError(ctx, rec.ID, cause.Error()); err != nil {
		util.Log(ctx).WithError(err).Error("recording error status not persisted")
	}
	p.pub.Emit(ctx, events.RecordingFailed, rec.ID, events.RecordingFailedData{
		Filename: rec.Filename,
		Error:    cause.Error(),
	})
	return store.StatusError
}

// Reprocess forces a recording back to pending and runs it again, even if
// it previously completed.
func (p *Processor) Reprocess(ctx context.Context, rec *store.Recording) string {
	if err := p.store.Reset(ctx, rec.ID); err != nil {
		util.Log(ctx).WithError(err).Error("resetting recording for reprocess")
		return store.StatusError
	}
	return p.Process(ctx, rec.Filepath)
}
