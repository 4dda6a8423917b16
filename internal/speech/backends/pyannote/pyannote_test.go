package pyannote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/callscribe/callscribe/internal/speech/engine"
	"github.com/callscribe/callscribe/internal/speech/registry"
)

func TestRegistered(t *testing.T) {
	if !registry.Diarizers.Has("pyannote") {
		t.Fatal("pyannote backend not registered")
	}
}

func TestDiarize(t *testing.T) {
	var gotAuth string
	var gotReq diarizeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/diarize" {
			t.Errorf("path = %q, want /v1/diarize", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		// Out of order on purpose; the client must sort.
		json.NewEncoder(w).Encode(engine.DiarizationResult{
			Segments: []engine.DiarizationSegment{
				{Speaker: "SPEAKER_01", Start: 5, End: 8},
				{Speaker: "SPEAKER_00", Start: 0, End: 4},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "hf-token")
	result, err := client.Diarize(context.Background(), "/calls/a.wav", 2)
	if err != nil {
		t.Fatalf("Diarize: %v", err)
	}

	if gotAuth != "Bearer hf-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.AudioPath != "/calls/a.wav" || gotReq.NumSpeakers != 2 {
		t.Errorf("request = %+v", gotReq)
	}

	if len(result.Segments) != 2 {
		t.Fatalf("got %d segments", len(result.Segments))
	}
	if result.Segments[0].Speaker != "SPEAKER_00" {
		t.Errorf("segments not ordered by start: %+v", result.Segments)
	}
	if result.NumSpeakers != 2 {
		t.Errorf("num speakers = %d, want 2 derived from tags", result.NumSpeakers)
	}
}

func TestDiarizeNoAuthHeader(t *testing.T) {
	var sawAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization") != ""
		json.NewEncoder(w).Encode(engine.DiarizationResult{})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	if _, err := client.Diarize(context.Background(), "/calls/a.wav", 2); err != nil {
		t.Fatalf("Diarize: %v", err)
	}
	if sawAuth {
		t.Error("Authorization header sent without a token")
	}
}

func TestDiarizeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "pipeline not ready", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	if _, err := client.Diarize(context.Background(), "/calls/a.wav", 2); err == nil {
		t.Fatal("expected error on 503 response")
	}
}
