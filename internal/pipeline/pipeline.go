package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/callscribe/callscribe/internal/audio"
	"github.com/callscribe/callscribe/internal/speech/engine"
)

// ChannelSplitter extracts the two mono channel files from a stereo
// recording. The cleanup function releases the temporary files and is
// called even when a later step fails.
type ChannelSplitter interface {
	SplitStereo(ctx context.Context, path string) (audio.Split, func(), error)
}

// ProbeFunc reports the channel layout of an audio file.
type ProbeFunc func(path string) (audio.Info, error)

// Config wires the collaborators and tuning knobs into a Pipeline.
type Config struct {
	ASR      engine.Transcriber
	Diarizer engine.Diarizer
	Splitter ChannelSplitter
	// Probe defaults to audio.Probe when nil.
	Probe ProbeFunc

	Language         string
	BeamSize         int
	ExpectedSpeakers int
	Rules            *RuleSet
}

// Pipeline routes a decoded recording through the stereo fast path or the
// mono diarize+classify path and produces a speaker-attributed transcript.
type Pipeline struct {
	asr              engine.Transcriber
	diarizer         engine.Diarizer
	splitter         ChannelSplitter
	probe            ProbeFunc
	language         string
	beamSize         int
	expectedSpeakers int
	classifier       *Classifier
}

// New creates a Pipeline from the given configuration.
func New(cfg Config) *Pipeline {
	probe := cfg.Probe
	if probe == nil {
		probe = audio.Probe
	}
	expected := cfg.ExpectedSpeakers
	if expected <= 0 {
		expected = 2
	}
	return &Pipeline{
		asr:              cfg.ASR,
		diarizer:         cfg.Diarizer,
		splitter:         cfg.Splitter,
		probe:            probe,
		language:         cfg.Language,
		beamSize:         cfg.BeamSize,
		expectedSpeakers: expected,
		classifier:       NewClassifier(cfg.Rules),
	}
}

// Process runs the full pipeline on one audio file. The routing decision
// is purely on channel count: two or more channels take the stereo fast
// path, one channel the mono path.
func (p *Pipeline) Process(ctx context.Context, path string) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file not found: %s: %w", path, err)
	}

	info, err := p.probe(path)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}

	slog.Info("pipeline started",
		slog.String("path", path),
		slog.Int("channels", info.Channels),
		slog.Int("sample_rate", info.SampleRate),
		slog.Float64("duration", info.Duration))

	var result *Result
	if info.Channels >= 2 {
		result, err = p.runStereo(ctx, path)
	} else {
		result, err = p.runMono(ctx, path)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("pipeline complete",
		slog.String("path", path),
		slog.Int("segments", len(result.Segments)),
		slog.String("mode", string(result.ChannelMode)),
		slog.Float64("duration", result.Duration))
	return result, nil
}

// runStereo transcribes each channel independently. Channel 0 is the
// agent, channel 1 the customer; no diarization or classification runs.
func (p *Pipeline) runStereo(ctx context.Context, path string) (*Result, error) {
	split, cleanup, err := p.splitter.SplitStereo(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("split stereo channels: %w", err)
	}
	defer cleanup()

	opts := engine.TranscribeOptions{Language: p.language, BeamSize: p.beamSize}

	agentResult, err := p.asr.Transcribe(ctx, split.AgentPath, opts)
	if err != nil {
		return nil, fmt.Errorf("transcribe agent channel: %w", err)
	}
	customerResult, err := p.asr.Transcribe(ctx, split.CustomerPath, opts)
	if err != nil {
		return nil, fmt.Errorf("transcribe customer channel: %w", err)
	}

	segments := make([]AlignedSegment, 0, len(agentResult.Segments)+len(customerResult.Segments))
	for _, seg := range agentResult.Segments {
		segments = append(segments, channelSegment(RoleAgent, seg))
	}
	for _, seg := range customerResult.Segments {
		segments = append(segments, channelSegment(RoleCustomer, seg))
	}
	segments = SortSegments(segments)

	duration := agentResult.Duration
	if customerResult.Duration > duration {
		duration = customerResult.Duration
	}

	return &Result{
		Segments:    segments,
		FullText:    RenderTranscript(segments),
		Language:    agentResult.Language,
		Duration:    duration,
		NumSpeakers: 2,
		ChannelMode: ModeStereo,
	}, nil
}

// runMono diarizes and transcribes independently, then fuses the two
// streams via classification and alignment.
func (p *Pipeline) runMono(ctx context.Context, path string) (*Result, error) {
	diarization, err := p.diarizer.Diarize(ctx, path, p.expectedSpeakers)
	if err != nil {
		return nil, fmt.Errorf("diarize: %w", err)
	}

	transcription, err := p.asr.Transcribe(ctx, path, engine.TranscribeOptions{
		Language: p.language,
		BeamSize: p.beamSize,
	})
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	roles := p.classifier.Classify(diarization.Segments, transcription.Segments)
	segments := AlignSegments(transcription.Segments, diarization.Segments, roles)

	return &Result{
		Segments:    segments,
		FullText:    RenderTranscript(segments),
		Language:    transcription.Language,
		Duration:    transcription.Duration,
		NumSpeakers: diarization.NumSpeakers,
		ChannelMode: ModeMono,
	}, nil
}

func channelSegment(role Role, seg engine.TranscriptionSegment) AlignedSegment {
	return AlignedSegment{
		Role:       role,
		Text:       seg.Text,
		Start:      seg.Start,
		End:        seg.End,
		Confidence: meanWordProbability(seg),
	}
}
