package pipeline

import (
	"log/slog"

	"github.com/callscribe/callscribe/internal/speech/engine"
)

// FallbackRole is assigned when a transcription segment overlaps no
// diarization segment at all. Defaulting to agent mirrors observed
// call-center data where untracked speech is usually scripted lead-in,
// but it remains a heuristic.
const FallbackRole = RoleAgent

// Overlap returns the duration two intervals share. It is symmetric,
// non-negative, and zero for disjoint intervals.
func Overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	lo := aStart
	if bStart > lo {
		lo = bStart
	}
	hi := aEnd
	if bEnd < hi {
		hi = bEnd
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// bestSpeaker returns the speaker tag whose diarization segments share the
// most accumulated time with the transcription segment. Ties go to the tag
// whose first diarization segment starts earliest (then the smaller tag),
// so the answer does not depend on input ordering. The second return is
// false when nothing overlaps.
func bestSpeaker(tseg engine.TranscriptionSegment, dsegs []engine.DiarizationSegment) (string, bool) {
	overlaps := make(map[string]float64)
	firstStart := make(map[string]float64)

	for _, dseg := range dsegs {
		if ov := Overlap(tseg.Start, tseg.End, dseg.Start, dseg.End); ov > 0 {
			overlaps[dseg.Speaker] += ov
		}
		if start, ok := firstStart[dseg.Speaker]; !ok || dseg.Start < start {
			firstStart[dseg.Speaker] = dseg.Start
		}
	}
	if len(overlaps) == 0 {
		return "", false
	}

	var best string
	var bestOv float64
	for tag, ov := range overlaps {
		switch {
		case best == "" || ov > bestOv:
			best, bestOv = tag, ov
		case ov == bestOv:
			if firstStart[tag] < firstStart[best] ||
				(firstStart[tag] == firstStart[best] && tag < best) {
				best = tag
			}
		}
	}
	return best, true
}

// AlignSegments matches every transcription segment to the diarization
// speaker with maximum temporal overlap and resolves the speaker tag
// through the role map. Output order follows input order. Pure: no side
// effects beyond logging.
func AlignSegments(tsegs []engine.TranscriptionSegment, dsegs []engine.DiarizationSegment, roles RoleMap) []AlignedSegment {
	aligned := make([]AlignedSegment, 0, len(tsegs))

	for _, tseg := range tsegs {
		var role Role
		if tag, ok := bestSpeaker(tseg, dsegs); ok {
			if mapped, known := roles[tag]; known {
				role = mapped
			} else {
				role = RoleCustomer
			}
		} else {
			role = FallbackRole
			slog.Warn("no diarization overlap for segment, applying fallback role",
				slog.Float64("start", tseg.Start),
				slog.Float64("end", tseg.End),
				slog.String("role", string(role)))
		}

		aligned = append(aligned, AlignedSegment{
			Role:       role,
			Text:       tseg.Text,
			Start:      tseg.Start,
			End:        tseg.End,
			Confidence: meanWordProbability(tseg),
		})
	}
	return aligned
}

// meanWordProbability averages per-word probabilities, or returns nil when
// the segment carries no word data.
func meanWordProbability(seg engine.TranscriptionSegment) *float64 {
	if len(seg.Words) == 0 {
		return nil
	}
	var sum float64
	for _, w := range seg.Words {
		sum += w.Probability
	}
	mean := sum / float64(len(seg.Words))
	return &mean
}
