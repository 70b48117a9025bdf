package domain

// CacheEntry is one pooled prior itinerary available for reuse.
// The pool is read-only from the reconciliation engine's perspective.
type CacheEntry struct {
	DestinationSlug string    `json:"destination_slug"`
	Season          Season    `json:"season"`
	DurationDays    int       `json:"duration_days"`
	Pacing          Pacing    `json:"pacing"`
	Anchors         []string  `json:"anchors"`
	TravelerType    string    `json:"traveler_type"`
	QualityScore    float64   `json:"quality_score"`
	Data            Itinerary `json:"data"`
}

// TaskType identifies a differential-generation adjustment.
type TaskType string

const (
	TaskAdjustPacing TaskType = "adjust_pacing"
	TaskAddAnchor    TaskType = "add_anchor"
	TaskExtendDays   TaskType = "extend_days"
)

// GenerationTask describes one adjustment needed to turn a pooled itinerary
// into a match for the requested trip. Only the fields relevant to the task
// type are populated.
type GenerationTask struct {
	Type         TaskType `json:"type"`
	TargetPacing Pacing   `json:"target_pacing,omitempty"` // adjust_pacing
	Anchors      []string `json:"anchors,omitempty"`       // add_anchor
	AddDays      int      `json:"add_days,omitempty"`      // extend_days
}

// MatchType summarizes how closely a pool candidate fits a trip request.
type MatchType string

const (
	// MatchExact means score >= 90 with no adjustment tasks.
	MatchExact MatchType = "exact"
	// MatchExtend means the candidate needs extra days appended.
	MatchExtend MatchType = "extend"
	// MatchAnchorDiff means the candidate is missing requested anchors.
	MatchAnchorDiff MatchType = "anchor_diff"
	// MatchPartial is any other usable match.
	MatchPartial MatchType = "partial"
)

// CacheMatch is the matcher's verdict for the best-scoring pool candidate.
type CacheMatch struct {
	Entry     CacheEntry       `json:"entry"`
	Score     int              `json:"score"`
	MatchType MatchType        `json:"match_type"`
	Tasks     []GenerationTask `json:"tasks,omitempty"`
}
