package pyannote

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/callscribe/callscribe/internal/speech/backends/restutil"
	"github.com/callscribe/callscribe/internal/speech/engine"
	"github.com/callscribe/callscribe/internal/speech/registry"
)

func init() {
	registry.Diarizers.Register("pyannote", func(config map[string]string) (engine.Diarizer, error) {
		baseURL := config["diarizer_service_url"]
		if baseURL == "" {
			baseURL = "http://localhost:9001"
		}
		return NewClient(baseURL, config["auth_token"]), nil
	})
}

// Client calls a pyannote speaker-diarization server over HTTP.
type Client struct {
	baseURL   string
	authToken string
}

// NewClient creates a pyannote client for the given server base URL.
func NewClient(baseURL, authToken string) *Client {
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), authToken: authToken}
}

type diarizeRequest struct {
	AudioPath   string `json:"audio_path"`
	NumSpeakers int    `json:"num_speakers,omitempty"`
}

// Diarize runs speaker diarization on the given audio file. Segments are
// returned ordered by start time.
func (c *Client) Diarize(ctx context.Context, audioPath string, numSpeakers int) (*engine.DiarizationResult, error) {
	var headers map[string]string
	if c.authToken != "" {
		headers = map[string]string{"Authorization": "Bearer " + c.authToken}
	}

	req := diarizeRequest{AudioPath: audioPath, NumSpeakers: numSpeakers}

	var result engine.DiarizationResult
	if err := restutil.DoJSON(ctx, http.MethodPost, c.baseURL+"/v1/diarize", headers, req, &result); err != nil {
		return nil, fmt.Errorf("pyannote diarize: %w", err)
	}

	sort.SliceStable(result.Segments, func(i, j int) bool {
		return result.Segments[i].Start < result.Segments[j].Start
	})

	if result.NumSpeakers == 0 {
		unique := make(map[string]struct{})
		for _, seg := range result.Segments {
			unique[seg.Speaker] = struct{}{}
		}
		result.NumSpeakers = len(unique)
	}
	return &result, nil
}
