package pipeline

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/callscribe/callscribe/internal/speech/engine"
)

// Signal weights and thresholds of the role-scoring heuristic. Phrase
// weights live in the rule table; these cover the temporal/structural
// signals.
const (
	shortSegmentWordLimit = 5
	shortSegmentPenalty   = 1.5
	dominantTimeShare     = 0.55
	dominantTimeBonus     = 2.0
	longTurnMeanWords     = 8
	longTurnBonus         = 1.0
	diversityMinPatterns  = 3
	diversityBonus        = 2.0
	speaksFirstBonus      = 0.5
)

// Classifier assigns agent/customer roles to the dominant diarization
// identities of a mono recording using a weighted multi-signal heuristic.
type Classifier struct {
	rules *RuleSet
}

// NewClassifier creates a Classifier; a nil rule set selects the built-in
// table.
func NewClassifier(rules *RuleSet) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

type speakerStats struct {
	tag            string
	speakingTime   float64
	segmentCount   int
	firstStart     float64
	texts          []string
	agentMatches   int
	shortResponses int
	shortSegments  int
	timeShare      float64
	meanWords      float64
	score          float64
}

// Classify builds a RoleMap covering the (at most) two diarization tags
// with the largest cumulative speaking time. Deterministic and invariant
// under reordering of either input list: all signals are computed from
// segment content, never from iteration order.
func (c *Classifier) Classify(dsegs []engine.DiarizationSegment, tsegs []engine.TranscriptionSegment) RoleMap {
	if len(dsegs) == 0 {
		return RoleMap{}
	}

	// Diarization-only stats per tag.
	byTag := make(map[string]*speakerStats)
	for _, seg := range dsegs {
		st, ok := byTag[seg.Speaker]
		if !ok {
			st = &speakerStats{tag: seg.Speaker, firstStart: seg.Start}
			byTag[seg.Speaker] = st
		}
		st.speakingTime += seg.End - seg.Start
		st.segmentCount++
		if seg.Start < st.firstStart {
			st.firstStart = seg.Start
		}
	}
	var totalTime float64
	all := make([]*speakerStats, 0, len(byTag))
	for _, st := range byTag {
		totalTime += st.speakingTime
		all = append(all, st)
	}

	// Top two by speaking time; ties resolved by earliest appearance, then
	// tag, to keep candidate order canonical.
	sort.Slice(all, func(i, j int) bool {
		if all[i].speakingTime != all[j].speakingTime {
			return all[i].speakingTime > all[j].speakingTime
		}
		if all[i].firstStart != all[j].firstStart {
			return all[i].firstStart < all[j].firstStart
		}
		return all[i].tag < all[j].tag
	})
	candidates := all
	if len(candidates) > 2 {
		candidates = candidates[:2]
	}
	isCandidate := make(map[string]*speakerStats, len(candidates))
	for _, st := range candidates {
		isCandidate[st.tag] = st
	}

	// Attribute transcription text to candidates with the same matching
	// logic the aligner uses.
	ordered := make([]engine.TranscriptionSegment, len(tsegs))
	copy(ordered, tsegs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })
	for _, tseg := range ordered {
		if tag, ok := bestSpeaker(tseg, dsegs); ok {
			if st, candidate := isCandidate[tag]; candidate {
				st.texts = append(st.texts, strings.TrimSpace(tseg.Text))
			}
		}
	}

	for _, st := range candidates {
		c.score(st, totalTime, candidates)
	}

	if len(candidates) == 1 {
		return c.classifySingle(candidates[0])
	}

	agent, customer := candidates[0], candidates[1]
	if customer.score > agent.score {
		agent, customer = customer, agent
	}

	slog.Info("speaker roles classified",
		slog.String("agent_tag", agent.tag),
		slog.Float64("agent_score", agent.score),
		slog.Int("agent_phrases", agent.agentMatches),
		slog.Float64("agent_time_share", agent.timeShare),
		slog.String("customer_tag", customer.tag),
		slog.Float64("customer_score", customer.score),
		slog.Int("customer_short_responses", customer.shortResponses))

	return RoleMap{agent.tag: RoleAgent, customer.tag: RoleCustomer}
}

// score applies the weighted signals to one candidate.
func (c *Classifier) score(st *speakerStats, totalTime float64, candidates []*speakerStats) {
	allText := strings.Join(st.texts, " ")

	// Scripted/formal agent phrases, one hit per distinct rule.
	matches, weight := c.rules.MatchedAgentRules(allText)
	st.agentMatches = matches
	st.score += weight
	if matches >= diversityMinPatterns {
		st.score += diversityBonus
	}

	// Short customer-style responses, per segment.
	var totalWords int
	for _, text := range st.texts {
		if w, ok := c.rules.CustomerResponseWeight(text); ok {
			st.shortResponses++
			st.score += w
		}
		words := len(strings.Fields(text))
		totalWords += words
		if words < shortSegmentWordLimit {
			st.shortSegments++
			st.score -= shortSegmentPenalty
		}
	}

	if totalTime > 0 {
		st.timeShare = st.speakingTime / totalTime
	}
	if st.timeShare > dominantTimeShare {
		st.score += dominantTimeBonus
	}

	if len(st.texts) > 0 {
		st.meanWords = float64(totalWords) / float64(len(st.texts))
		if st.meanWords > longTurnMeanWords {
			st.score += longTurnBonus
		}
	}

	// Weak tiebreak: starts speaking no later than every other candidate.
	speaksFirst := true
	for _, other := range candidates {
		if other.firstStart < st.firstStart {
			speaksFirst = false
			break
		}
	}
	if speaksFirst {
		st.score += speaksFirstBonus
	}
}

// classifySingle handles the degenerate single-speaker recording.
func (c *Classifier) classifySingle(st *speakerStats) RoleMap {
	if st.agentMatches == 0 && float64(st.shortSegments) > float64(len(st.texts))*0.5 {
		slog.Info("single speaker classified as customer",
			slog.String("tag", st.tag),
			slog.Int("short_segments", st.shortSegments),
			slog.Int("segments", len(st.texts)))
		return RoleMap{st.tag: RoleCustomer}
	}
	slog.Info("single speaker classified as agent",
		slog.String("tag", st.tag),
		slog.Float64("score", st.score))
	return RoleMap{st.tag: RoleAgent}
}
