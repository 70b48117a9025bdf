package domain

import "github.com/google/uuid"

// FeedbackItem is one pending comment flattened into the consolidated
// request sent to the AI generation collaborator.
type FeedbackItem struct {
	CommentID  uuid.UUID     `json:"comment_id"`
	TargetType TargetType    `json:"target_type"`
	TargetID   string        `json:"target_id,omitempty"`
	Content    string        `json:"content"`
	Action     CommentAction `json:"action"`
	Confidence Confidence    `json:"confidence"`
}

// TripConstraints carries the trip attributes the generator must honor.
type TripConstraints struct {
	Destination   string   `json:"destination"`
	DurationDays  int      `json:"duration_days"`
	Pacing        Pacing   `json:"pacing"`
	Anchors       []string `json:"anchors"`
	TravelerType  string   `json:"traveler_type"`
	TravelerCount int      `json:"traveler_count"`
}

// GenerationRequest is the consolidated payload for the AI collaborator.
// Current is nil for initial generation.
type GenerationRequest struct {
	Current     *Itinerary      `json:"current_itinerary,omitempty"`
	Feedback    []FeedbackItem  `json:"feedback,omitempty"`
	Constraints TripConstraints `json:"constraints"`
}

// GenerationResult is the parsed shape of the collaborator's response.
type GenerationResult struct {
	Itinerary   Itinerary `json:"itinerary"`
	ChangesMade []string  `json:"changes_made"`
}
