package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/callscribe/callscribe/internal/audio"
	"github.com/callscribe/callscribe/internal/speech/engine"
)

type fakeASR struct {
	results map[string]*engine.TranscriptionResult
	calls   []string
	err     error
}

func (f *fakeASR) Transcribe(_ context.Context, audioPath string, _ engine.TranscribeOptions) (*engine.TranscriptionResult, error) {
	f.calls = append(f.calls, audioPath)
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.results[audioPath]; ok {
		return r, nil
	}
	return &engine.TranscriptionResult{}, nil
}

type fakeDiarizer struct {
	result *engine.DiarizationResult
	calls  int
	err    error
}

func (f *fakeDiarizer) Diarize(_ context.Context, _ string, _ int) (*engine.DiarizationResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSplitter struct {
	split   audio.Split
	cleaned bool
	err     error
}

func (f *fakeSplitter) SplitStereo(_ context.Context, _ string) (audio.Split, func(), error) {
	if f.err != nil {
		return audio.Split{}, nil, f.err
	}
	return f.split, func() { f.cleaned = true }, nil
}

func fixedProbe(channels int) ProbeFunc {
	return func(string) (audio.Info, error) {
		return audio.Info{Channels: channels, SampleRate: 16000, Duration: 30}, nil
	}
}

func tempAudioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "call.wav")
	if err := os.WriteFile(path, []byte("not real audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessMissingFile(t *testing.T) {
	p := New(Config{ASR: &fakeASR{}, Diarizer: &fakeDiarizer{}})
	_, err := p.Process(context.Background(), "/nonexistent/call.wav")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "audio file not found") {
		t.Errorf("err = %v, want file-not-found", err)
	}
}

func TestProcessStereoSkipsDiarization(t *testing.T) {
	path := tempAudioFile(t)
	asr := &fakeASR{results: map[string]*engine.TranscriptionResult{
		"agent.wav": {
			Segments: []engine.TranscriptionSegment{
				{Text: "dzień dobry", Start: 0, End: 2},
				{Text: "w czym mogę pomóc", Start: 4, End: 6},
			},
			Language: "pl",
			Duration: 30,
		},
		"customer.wav": {
			Segments: []engine.TranscriptionSegment{
				{Text: "mam pytanie o fakturę", Start: 2.5, End: 4},
			},
			Language: "pl",
			Duration: 29,
		},
	}}
	diarizer := &fakeDiarizer{}
	splitter := &fakeSplitter{split: audio.Split{AgentPath: "agent.wav", CustomerPath: "customer.wav"}}

	p := New(Config{ASR: asr, Diarizer: diarizer, Splitter: splitter, Probe: fixedProbe(2)})
	result, err := p.Process(context.Background(), path)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if diarizer.calls != 0 {
		t.Errorf("diarizer called %d times, want 0 on stereo path", diarizer.calls)
	}
	if result.ChannelMode != ModeStereo {
		t.Errorf("mode = %q, want %q", result.ChannelMode, ModeStereo)
	}
	if result.NumSpeakers != 2 {
		t.Errorf("num speakers = %d, want 2", result.NumSpeakers)
	}
	if result.Duration != 30 {
		t.Errorf("duration = %v, want 30", result.Duration)
	}
	if !splitter.cleaned {
		t.Error("splitter temp files not cleaned up")
	}

	// Channel roles are fixed and segments end up interleaved by time.
	wantRoles := []Role{RoleAgent, RoleCustomer, RoleAgent}
	if len(result.Segments) != len(wantRoles) {
		t.Fatalf("got %d segments, want %d", len(result.Segments), len(wantRoles))
	}
	for i, want := range wantRoles {
		if result.Segments[i].Role != want {
			t.Errorf("segment %d role = %q, want %q", i, result.Segments[i].Role, want)
		}
	}
	if !strings.HasPrefix(result.FullText, "[Agent] dzień dobry") {
		t.Errorf("full text = %q", result.FullText)
	}
}

func TestProcessMono(t *testing.T) {
	path := tempAudioFile(t)
	asr := &fakeASR{results: map[string]*engine.TranscriptionResult{
		path: {
			Segments: []engine.TranscriptionSegment{
				{Text: "dzień dobry, dzwonię z firmy w sprawie zamówienia", Start: 0, End: 6},
				{Text: "tak", Start: 6.5, End: 7},
			},
			Language: "pl",
			Duration: 7,
		},
	}}
	diarizer := &fakeDiarizer{result: &engine.DiarizationResult{
		Segments: []engine.DiarizationSegment{
			{Speaker: "SPEAKER_00", Start: 0, End: 6},
			{Speaker: "SPEAKER_01", Start: 6.5, End: 7},
		},
		NumSpeakers: 2,
	}}

	p := New(Config{ASR: asr, Diarizer: diarizer, Probe: fixedProbe(1)})
	result, err := p.Process(context.Background(), path)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if result.ChannelMode != ModeMono {
		t.Errorf("mode = %q, want %q", result.ChannelMode, ModeMono)
	}
	if diarizer.calls != 1 {
		t.Errorf("diarizer called %d times, want 1", diarizer.calls)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(result.Segments))
	}
	if result.Segments[0].Role != RoleAgent {
		t.Errorf("segment 0 role = %q, want %q", result.Segments[0].Role, RoleAgent)
	}
	if result.Segments[1].Role != RoleCustomer {
		t.Errorf("segment 1 role = %q, want %q", result.Segments[1].Role, RoleCustomer)
	}
}

func TestProcessMonoDiarizerFailure(t *testing.T) {
	path := tempAudioFile(t)
	diarizer := &fakeDiarizer{err: errors.New("diarizer unreachable")}

	p := New(Config{ASR: &fakeASR{}, Diarizer: diarizer, Probe: fixedProbe(1)})
	if _, err := p.Process(context.Background(), path); err == nil {
		t.Fatal("expected error when diarizer fails")
	}
}

func TestProcessStereoSplitterFailure(t *testing.T) {
	path := tempAudioFile(t)
	splitter := &fakeSplitter{err: errors.New("ffmpeg exited 1")}

	p := New(Config{ASR: &fakeASR{}, Diarizer: &fakeDiarizer{}, Splitter: splitter, Probe: fixedProbe(2)})
	if _, err := p.Process(context.Background(), path); err == nil {
		t.Fatal("expected error when channel split fails")
	}
}
