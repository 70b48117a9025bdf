package domain

import (
	"time"

	"github.com/google/uuid"
)

// TimelineItem is a single scheduled entry within a day's plan.
// Start and End use 24-hour "15:04" clock strings; the merge engine only
// inspects them for the day-boundary continuity check.
type TimelineItem struct {
	ID              string `json:"id,omitempty"`
	Start           string `json:"start"`
	End             string `json:"end"`
	Title           string `json:"title"`
	Kind            string `json:"kind,omitempty"` // spot, drive, meal, activity
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// Day is one day of an itinerary. DayNumber starts at 1.
type Day struct {
	DayNumber int            `json:"day_number"`
	Title     string         `json:"title,omitempty"`
	Timeline  []TimelineItem `json:"timeline"`
}

// Itinerary is the plan document stored on each version. Beyond the day list
// shape the content is opaque to the reconciliation engine.
type Itinerary struct {
	Destination string    `json:"destination,omitempty"`
	Days        []Day     `json:"days"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Day returns the day with the given number, if present.
func (i Itinerary) Day(n int) (Day, bool) {
	for _, d := range i.Days {
		if d.DayNumber == n {
			return d, true
		}
	}
	return Day{}, false
}

// SourceType records how an itinerary version came to exist.
type SourceType string

const (
	// SourceBase is a fresh AI generation from trip constraints alone.
	SourceBase SourceType = "base"
	// SourceSimilar is an itinerary adopted from the candidate pool.
	SourceSimilar SourceType = "similar"
	// SourceDifferential is a pool itinerary adjusted by generation tasks.
	SourceDifferential SourceType = "differential"
	// SourceRegeneration is a full regeneration driven by pending feedback.
	SourceRegeneration SourceType = "regeneration"
	// SourceCherryPick composes days selected from prior versions.
	SourceCherryPick SourceType = "cherry_pick"
	// SourceRestore re-adopts every day of a single prior version.
	SourceRestore SourceType = "restore"
)

// ParseSourceType validates a raw source type against the closed set.
func ParseSourceType(s string) (SourceType, error) {
	switch t := SourceType(s); t {
	case SourceBase, SourceSimilar, SourceDifferential, SourceRegeneration,
		SourceCherryPick, SourceRestore:
		return t, nil
	default:
		return "", ErrValidation
	}
}

// ItineraryVersion is one entry in a trip's append-only version log.
// Versions per trip are unique, gap-free, and strictly increasing from 1;
// a version row is never mutated or deleted once written.
type ItineraryVersion struct {
	ID                  uuid.UUID   `json:"id"`
	TripID              uuid.UUID   `json:"trip_id"`
	Version             int         `json:"version"`
	Data                Itinerary   `json:"data"`
	SourceType          SourceType  `json:"source_type"`
	ParentVersion       *int        `json:"parent_version,omitempty"`
	SourceCommentIDs    []uuid.UUID `json:"source_comment_ids,omitempty"`
	SourceVersions      []int       `json:"source_versions,omitempty"`
	ModificationSummary string      `json:"modification_summary"`
	CreatedBy           uuid.UUID   `json:"created_by"`
	CreatedAt           time.Time   `json:"created_at"`
}
