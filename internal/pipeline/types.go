package pipeline

import "strings"

// Role is the business meaning assigned to an anonymous speaker identity.
// Every segment resolves to one of the two values; there is no unknown.
type Role string

const (
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
)

// Other returns the opposite role.
func (r Role) Other() Role {
	if r == RoleAgent {
		return RoleCustomer
	}
	return RoleAgent
}

// Display returns the role capitalized for transcript rendering.
func (r Role) Display() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

// RoleMap maps raw diarization speaker tags to roles. Built once per mono
// run; the stereo path never needs one.
type RoleMap map[string]Role

// AlignedSegment is a transcription segment with an assigned role.
type AlignedSegment struct {
	Role       Role
	Text       string
	Start      float64
	End        float64
	Confidence *float64
}

// ChannelMode records which processing path produced a result.
type ChannelMode string

const (
	ModeMono   ChannelMode = "mono"
	ModeStereo ChannelMode = "stereo"
)

// Result is the final output of one pipeline invocation.
type Result struct {
	Segments    []AlignedSegment
	FullText    string
	Language    string
	Duration    float64
	NumSpeakers int
	ChannelMode ChannelMode
}
