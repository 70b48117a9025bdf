// Package domain contains the core data types for the Tripweaver API.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Pacing is the itinerary density setting chosen by the traveller.
type Pacing string

const (
	PacingRelaxed  Pacing = "relaxed"
	PacingBalanced Pacing = "balanced"
	PacingPacked   Pacing = "packed"
)

// ParsePacing validates a raw pacing string against the closed set.
// Unrecognized values are rejected at the boundary rather than defaulted.
func ParsePacing(s string) (Pacing, error) {
	switch p := Pacing(strings.ToLower(strings.TrimSpace(s))); p {
	case PacingRelaxed, PacingBalanced, PacingPacked:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown pacing %q", ErrValidation, s)
	}
}

// TripStatus tracks whether a trip has an itinerary yet.
type TripStatus string

const (
	// StatusDraft means no itinerary version exists yet (active_version == 0).
	StatusDraft TripStatus = "draft"
	// StatusPlanned means at least one itinerary version exists.
	StatusPlanned TripStatus = "planned"
)

// Trip is the top-level aggregate. Itinerary versions and comments belong to
// a trip. ActiveVersion is 0 until the first itinerary is generated, after
// which it always names an existing ItineraryVersion.Version for this trip.
// RegenerationsUsed only ever increases.
type Trip struct {
	ID                uuid.UUID  `json:"id"`
	OwnerID           uuid.UUID  `json:"owner_id"`
	Destination       string     `json:"destination"`
	DestinationSlug   string     `json:"destination_slug"`
	StartDate         time.Time  `json:"start_date"`
	EndDate           time.Time  `json:"end_date"`
	DurationDays      int        `json:"duration_days"`
	Pacing            Pacing     `json:"pacing"`
	Anchors           []string   `json:"anchors"`
	TravelerType      string     `json:"traveler_type"`
	TravelerCount     int        `json:"traveler_count"`
	ActiveVersion     int        `json:"active_version"`
	RegenerationsUsed int        `json:"regenerations_used"`
	Status            TripStatus `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Season is the coarse start-month bucket used for cache matching.
type Season string

const (
	SeasonSummer   Season = "summer"
	SeasonWinter   Season = "winter"
	SeasonShoulder Season = "shoulder"
)

// SeasonOf buckets a month: Jun–Aug is summer, Nov–Mar is winter,
// everything else is shoulder season.
func SeasonOf(m time.Month) Season {
	switch {
	case m >= time.June && m <= time.August:
		return SeasonSummer
	case m >= time.November || m <= time.March:
		return SeasonWinter
	default:
		return SeasonShoulder
	}
}

// Season returns the season bucket derived from the trip's start month.
func (t Trip) Season() Season {
	return SeasonOf(t.StartDate.Month())
}

// Slugify normalizes a destination name into a lookup slug:
// lowercased, with runs of non-alphanumeric characters collapsed to hyphens.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
