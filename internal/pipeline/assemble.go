package pipeline

import (
	"sort"
	"strings"
)

// SortSegments returns a copy of segments ordered by start time. The sort
// is stable, so segments sharing a start time keep their original order.
func SortSegments(segments []AlignedSegment) []AlignedSegment {
	sorted := make([]AlignedSegment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	return sorted
}

// RenderTranscript renders segments as the canonical labeled transcript,
// one "[Role] text" line per segment in start-time order. Idempotent for
// any permutation of an already-sorted segment list.
func RenderTranscript(segments []AlignedSegment) string {
	sorted := SortSegments(segments)
	lines := make([]string, 0, len(sorted))
	for _, seg := range sorted {
		lines = append(lines, "["+seg.Role.Display()+"] "+seg.Text)
	}
	return strings.Join(lines, "\n")
}
