package fasterwhisper

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/callscribe/callscribe/internal/speech/backends/restutil"
	"github.com/callscribe/callscribe/internal/speech/engine"
	"github.com/callscribe/callscribe/internal/speech/registry"
)

func init() {
	registry.ASR.Register("fasterwhisper", func(config map[string]string) (engine.Transcriber, error) {
		baseURL := config["asr_service_url"]
		if baseURL == "" {
			baseURL = "http://localhost:9000"
		}
		model := config["model"]
		if model == "" {
			model = "large-v3"
		}
		return NewClient(baseURL, model), nil
	})
}

// Client calls a faster-whisper transcription server over HTTP. The model
// lifetime belongs to the server; the client holds no heavy state.
type Client struct {
	baseURL string
	model   string
}

// NewClient creates a faster-whisper client for the given server base URL.
func NewClient(baseURL, model string) *Client {
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), model: model}
}

type transcribeRequest struct {
	AudioPath      string `json:"audio_path"`
	Model          string `json:"model"`
	Language       string `json:"language,omitempty"`
	BeamSize       int    `json:"beam_size,omitempty"`
	WordTimestamps bool   `json:"word_timestamps"`
	VADFilter      bool   `json:"vad_filter"`
}

// Transcribe sends the audio path to the server and returns the structured
// result with word-level timestamps.
func (c *Client) Transcribe(ctx context.Context, audioPath string, opts engine.TranscribeOptions) (*engine.TranscriptionResult, error) {
	req := transcribeRequest{
		AudioPath:      audioPath,
		Model:          c.model,
		Language:       opts.Language,
		BeamSize:       opts.BeamSize,
		WordTimestamps: true,
		VADFilter:      true,
	}

	var result engine.TranscriptionResult
	if err := restutil.DoJSON(ctx, http.MethodPost, c.baseURL+"/v1/transcribe", nil, req, &result); err != nil {
		return nil, fmt.Errorf("fasterwhisper transcribe: %w", err)
	}

	for i := range result.Segments {
		result.Segments[i].Text = strings.TrimSpace(result.Segments[i].Text)
	}
	return &result, nil
}
