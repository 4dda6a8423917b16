package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Split holds the two mono files produced from a stereo recording.
// Channel 0 (left) carries the agent, channel 1 (right) the customer.
type Split struct {
	AgentPath    string
	CustomerPath string
}

// Splitter extracts single-channel streams from a stereo file.
type Splitter struct {
	ffmpegPath string
}

// NewSplitter creates a Splitter using the given ffmpeg binary.
func NewSplitter(ffmpegPath string) *Splitter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Splitter{ffmpegPath: ffmpegPath}
}

// SplitStereo splits a stereo WAV into two temporary mono WAV files. The
// returned cleanup function removes them and must always be called, on
// failure paths included.
func (s *Splitter) SplitStereo(ctx context.Context, path string) (Split, func(), error) {
	workdir, err := os.MkdirTemp("", "callscribe_split_")
	if err != nil {
		return Split{}, func() {}, fmt.Errorf("create split workdir: %w", err)
	}
	cleanup := func() { os.RemoveAll(workdir) }

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	split := Split{
		AgentPath:    filepath.Join(workdir, base+"_left_agent.wav"),
		CustomerPath: filepath.Join(workdir, base+"_right_customer.wav"),
	}

	// ffmpeg -y -i input -filter_complex channelsplit=channel_layout=stereo left right
	cmd := exec.CommandContext(ctx, s.ffmpegPath,
		"-y", "-i", path,
		"-filter_complex", "channelsplit=channel_layout=stereo[left][right]",
		"-map", "[left]", split.AgentPath,
		"-map", "[right]", split.CustomerPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		return Split{}, func() {}, fmt.Errorf("ffmpeg channelsplit: %w: %s", err, strings.TrimSpace(string(out)))
	}

	return split, cleanup, nil
}
