package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pitabwire/frame/workerpool"

	"github.com/callscribe/callscribe/internal/ingest"
	"github.com/callscribe/callscribe/internal/pipeline"
	"github.com/callscribe/callscribe/internal/store"
	"github.com/callscribe/callscribe/pkg/events"
)

// Handler provides the REST query surface over processed recordings.
type Handler struct {
	repo *store.Repository
	proc *ingest.Processor
	pool workerpool.WorkerPool
	pub  *events.Publisher

	// procCtx outlives individual requests so queued reprocess jobs are
	// not cancelled when the client disconnects.
	procCtx context.Context
}

// NewHandler creates a recordings API handler.
func NewHandler(procCtx context.Context, repo *store.Repository, proc *ingest.Processor, pool workerpool.WorkerPool, pub *events.Publisher) *Handler {
	return &Handler{repo: repo, proc: proc, pool: pool, pub: pub, procCtx: procCtx}
}

// RegisterRoutes registers all recording API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/recordings", h.List)
	mux.HandleFunc("GET /api/v1/recordings/{id}", h.Get)
	mux.HandleFunc("GET /api/v1/recordings/{id}/segments", h.Segments)
	mux.HandleFunc("POST /api/v1/recordings/{id}/swap-roles", h.SwapRoles)
	mux.HandleFunc("POST /api/v1/recordings/{id}/reprocess", h.Reprocess)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/stats", h.GetStats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func toRecordingResponse(rec *store.Recording) RecordingResponse {
	resp := RecordingResponse{
		ID:           rec.ID,
		Filename:     rec.Filename,
		Filepath:     rec.Filepath,
		Status:       rec.Status,
		ErrorMessage: rec.ErrorMessage,
		CreatedAt:    rec.CreatedAt.Format(time.RFC3339),
		ModifiedAt:   rec.ModifiedAt.Format(time.RFC3339),
	}
	if rec.DurationSeconds.Valid {
		d := rec.DurationSeconds.Float64
		resp.DurationSeconds = &d
	}
	if rec.ProcessedAt.Valid {
		resp.ProcessedAt = rec.ProcessedAt.Time.Format(time.RFC3339)
	}
	return resp
}

func toSegmentResponse(seg *store.Segment) SegmentResponse {
	resp := SegmentResponse{
		Role:      seg.Role,
		Text:      seg.Text,
		StartTime: seg.StartTime,
		EndTime:   seg.EndTime,
	}
	if seg.Confidence.Valid {
		c := seg.Confidence.Float64
		resp.Confidence = &c
	}
	return resp
}

// List handles GET /api/v1/recordings
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	recordings, err := h.repo.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list recordings")
		return
	}

	resp := make([]RecordingResponse, 0, len(recordings))
	for i := range recordings {
		resp = append(resp, toRecordingResponse(&recordings[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/recordings/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "recording not found")
		return
	}

	resp := TranscriptResponse{
		Recording: toRecordingResponse(rec),
		Segments:  []SegmentResponse{},
	}

	transcript, segments, err := h.repo.GetTranscript(r.Context(), id)
	if err == nil {
		resp.FullText = transcript.FullText
		resp.Language = transcript.Language
		resp.ModelUsed = transcript.ModelUsed
		for i := range segments {
			resp.Segments = append(resp.Segments, toSegmentResponse(&segments[i]))
		}
	} else if err != store.ErrNotFound {
		writeError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Segments handles GET /api/v1/recordings/{id}/segments?role=agent
func (h *Handler) Segments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.repo.GetByID(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "recording not found")
		return
	}

	role := pipeline.Role(strings.ToLower(r.URL.Query().Get("role")))
	if role != "" && role != pipeline.RoleAgent && role != pipeline.RoleCustomer {
		writeError(w, http.StatusBadRequest, "role must be agent or customer")
		return
	}

	segments, err := h.repo.SegmentsByRole(r.Context(), id, role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load segments")
		return
	}

	resp := make([]SegmentResponse, 0, len(segments))
	for i := range segments {
		resp = append(resp, toSegmentResponse(&segments[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// SwapRoles handles POST /api/v1/recordings/{id}/swap-roles
func (h *Handler) SwapRoles(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "recording not found")
		return
	}
	if rec.Status != store.StatusDone {
		writeError(w, http.StatusConflict, "recording has no transcript to swap")
		return
	}

	if err := h.repo.SwapRoles(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to swap roles")
		return
	}
	h.pub.Emit(r.Context(), events.RolesSwapped, id, map[string]string{"filename": rec.Filename})
	h.Get(w, r)
}

// Reprocess handles POST /api/v1/recordings/{id}/reprocess
func (h *Handler) Reprocess(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "recording not found")
		return
	}

	job := func() {
		h.proc.Reprocess(h.procCtx, rec)
	}
	if err := h.pool.Submit(h.procCtx, job); err != nil {
		writeError(w, http.StatusServiceUnavailable, "worker pool rejected job")
		return
	}

	writeJSON(w, http.StatusAccepted, ReprocessResponse{ID: rec.ID, Status: store.StatusPending})
}

// Search handles GET /api/v1/search?q=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	hits, err := h.repo.Search(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

// GetStats handles GET /api/v1/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
