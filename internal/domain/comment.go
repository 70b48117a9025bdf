package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TargetType identifies what part of the itinerary a comment is about.
type TargetType string

const (
	TargetDay      TargetType = "day"
	TargetSpot     TargetType = "spot"
	TargetDrive    TargetType = "drive"
	TargetMeal     TargetType = "meal"
	TargetActivity TargetType = "activity"
	TargetTrip     TargetType = "trip"
)

// ParseTargetType validates a raw target type against the closed set.
func ParseTargetType(s string) (TargetType, error) {
	switch t := TargetType(strings.ToLower(strings.TrimSpace(s))); t {
	case TargetDay, TargetSpot, TargetDrive, TargetMeal, TargetActivity, TargetTrip:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown target type %q", ErrValidation, s)
	}
}

// CommentStatus is the lifecycle state of a piece of feedback.
// Only pending comments participate in conflict detection and regeneration.
type CommentStatus string

const (
	// StatusPending means the comment awaits a regeneration.
	StatusPending CommentStatus = "pending"
	// StatusAddressed means a regeneration applied this comment.
	StatusAddressed CommentStatus = "addressed"
	// StatusResolved means the user dismissed the comment explicitly.
	StatusResolved CommentStatus = "resolved"
	// StatusDeleted is a terminal soft delete; the row is kept.
	StatusDeleted CommentStatus = "deleted"
)

// Comment is a discrete piece of free-text feedback on an itinerary.
// ConflictsWith is symmetric across comments (if A lists B, B lists A) and
// is cleared when the comment leaves pending.
type Comment struct {
	ID                 uuid.UUID      `json:"id"`
	TripID             uuid.UUID      `json:"trip_id"`
	AuthorID           uuid.UUID      `json:"author_id"`
	TargetType         TargetType     `json:"target_type"`
	TargetID           string         `json:"target_id,omitempty"`
	Content            string         `json:"content"`
	SelectedText       string         `json:"selected_text,omitempty"`
	ParentID           *uuid.UUID     `json:"parent_id,omitempty"`
	Intent             *CommentIntent `json:"intent,omitempty"`
	ConflictsWith      []uuid.UUID    `json:"conflicts_with"`
	Status             CommentStatus  `json:"status"`
	AddressedInVersion *int           `json:"addressed_in_version,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// HasConflicts reports whether any other pending comment disagrees with this one.
func (c Comment) HasConflicts() bool {
	return len(c.ConflictsWith) > 0
}
