package pipeline

import (
	"testing"

	"github.com/callscribe/callscribe/internal/speech/engine"
)

func TestOverlap(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd float64
		want                           float64
	}{
		{"partial", 0, 2, 1, 3, 1},
		{"contained", 0, 10, 2, 4, 2},
		{"identical", 1, 5, 1, 5, 4},
		{"disjoint", 0, 1, 2, 3, 0},
		{"touching", 0, 1, 1, 2, 0},
		{"zero length", 1, 1, 0, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlap(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd)
			if got != tt.want {
				t.Errorf("Overlap = %v, want %v", got, tt.want)
			}
			if sym := Overlap(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd); sym != got {
				t.Errorf("Overlap not symmetric: %v vs %v", got, sym)
			}
			if got < 0 {
				t.Errorf("Overlap negative: %v", got)
			}
		})
	}
}

func TestAlignSegmentsPicksMaxOverlapSpeaker(t *testing.T) {
	// A transcription segment spanning 0.0-4.0 overlaps X for 1s and Y
	// for 2.5s; Y must win.
	tsegs := []engine.TranscriptionSegment{
		{Text: "dotyczy panstwa umowy", Start: 0, End: 4},
	}
	dsegs := []engine.DiarizationSegment{
		{Speaker: "SPEAKER_00", Start: 0, End: 1},
		{Speaker: "SPEAKER_01", Start: 1.5, End: 4},
	}
	roles := RoleMap{"SPEAKER_00": RoleAgent, "SPEAKER_01": RoleCustomer}

	aligned := AlignSegments(tsegs, dsegs, roles)
	if len(aligned) != 1 {
		t.Fatalf("got %d segments, want 1", len(aligned))
	}
	if aligned[0].Role != RoleCustomer {
		t.Errorf("role = %q, want %q", aligned[0].Role, RoleCustomer)
	}
}

func TestAlignSegmentsAccumulatesSplitOverlap(t *testing.T) {
	// X overlaps in two pieces (0.6s + 0.6s) against Y's single 1.0s
	// piece. Accumulation makes X the best speaker.
	tsegs := []engine.TranscriptionSegment{{Text: "tak", Start: 0, End: 3}}
	dsegs := []engine.DiarizationSegment{
		{Speaker: "X", Start: 0, End: 0.6},
		{Speaker: "Y", Start: 0.8, End: 1.8},
		{Speaker: "X", Start: 2.0, End: 2.6},
	}
	roles := RoleMap{"X": RoleAgent, "Y": RoleCustomer}

	aligned := AlignSegments(tsegs, dsegs, roles)
	if aligned[0].Role != RoleAgent {
		t.Errorf("role = %q, want %q", aligned[0].Role, RoleAgent)
	}
}

func TestAlignSegmentsNoOverlapFallsBackToAgent(t *testing.T) {
	tsegs := []engine.TranscriptionSegment{{Text: "halo", Start: 10, End: 11}}
	dsegs := []engine.DiarizationSegment{{Speaker: "X", Start: 0, End: 5}}
	roles := RoleMap{"X": RoleCustomer}

	aligned := AlignSegments(tsegs, dsegs, roles)
	if aligned[0].Role != FallbackRole {
		t.Errorf("role = %q, want fallback %q", aligned[0].Role, FallbackRole)
	}
}

func TestAlignSegmentsNoDiarizationAtAll(t *testing.T) {
	tsegs := []engine.TranscriptionSegment{
		{Text: "dzień dobry", Start: 0, End: 2},
		{Text: "tak", Start: 2, End: 3},
	}

	aligned := AlignSegments(tsegs, nil, RoleMap{})
	for i, seg := range aligned {
		if seg.Role != FallbackRole {
			t.Errorf("segment %d role = %q, want fallback %q", i, seg.Role, FallbackRole)
		}
	}
}

func TestAlignSegmentsUnmappedTagBecomesCustomer(t *testing.T) {
	tsegs := []engine.TranscriptionSegment{{Text: "dzien dobry", Start: 0, End: 2}}
	dsegs := []engine.DiarizationSegment{{Speaker: "SPEAKER_05", Start: 0, End: 2}}

	aligned := AlignSegments(tsegs, dsegs, RoleMap{})
	if aligned[0].Role != RoleCustomer {
		t.Errorf("role = %q, want %q for unmapped tag", aligned[0].Role, RoleCustomer)
	}
}

func TestAlignSegmentsTieIsOrderIndependent(t *testing.T) {
	// Both speakers overlap the segment for exactly 1s. The winner must
	// not depend on diarization input order.
	tsegs := []engine.TranscriptionSegment{{Text: "prosze", Start: 0, End: 2}}
	dsegs := []engine.DiarizationSegment{
		{Speaker: "A", Start: 0, End: 1},
		{Speaker: "B", Start: 1, End: 2},
	}
	reversed := []engine.DiarizationSegment{dsegs[1], dsegs[0]}
	roles := RoleMap{"A": RoleAgent, "B": RoleCustomer}

	first := AlignSegments(tsegs, dsegs, roles)
	second := AlignSegments(tsegs, reversed, roles)
	if first[0].Role != second[0].Role {
		t.Errorf("tie resolution depends on input order: %q vs %q", first[0].Role, second[0].Role)
	}
	// Earliest first diarization start wins the tie.
	if first[0].Role != RoleAgent {
		t.Errorf("role = %q, want %q", first[0].Role, RoleAgent)
	}
}

func TestAlignSegmentsConfidence(t *testing.T) {
	tsegs := []engine.TranscriptionSegment{
		{
			Text: "dzien dobry", Start: 0, End: 2,
			Words: []engine.Word{
				{Word: "dzien", Start: 0, End: 1, Probability: 0.8},
				{Word: "dobry", Start: 1, End: 2, Probability: 0.6},
			},
		},
		{Text: "tak", Start: 2, End: 3},
	}
	dsegs := []engine.DiarizationSegment{{Speaker: "X", Start: 0, End: 3}}

	aligned := AlignSegments(tsegs, dsegs, RoleMap{"X": RoleAgent})
	if aligned[0].Confidence == nil {
		t.Fatal("expected confidence for segment with words")
	}
	if got := *aligned[0].Confidence; got < 0.699 || got > 0.701 {
		t.Errorf("confidence = %v, want 0.7", got)
	}
	if aligned[1].Confidence != nil {
		t.Errorf("confidence = %v, want nil for segment without words", *aligned[1].Confidence)
	}
}
