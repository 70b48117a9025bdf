package domain

import (
	"fmt"
	"strings"
)

// CommentAction is the closed set of structured intents a comment can carry.
// Unrecognized actions are rejected at the boundary by ParseCommentAction
// rather than silently mapped to ActionUnclear inside business logic.
type CommentAction string

const (
	ActionAdd        CommentAction = "add"
	ActionRemove     CommentAction = "remove"
	ActionExtend     CommentAction = "extend"
	ActionShorten    CommentAction = "shorten"
	ActionSwap       CommentAction = "swap"
	ActionMove       CommentAction = "move"
	ActionQuestion   CommentAction = "question"
	ActionPreference CommentAction = "preference"
	ActionUnclear    CommentAction = "unclear"
)

// ParseCommentAction validates a raw action string against the closed set.
func ParseCommentAction(s string) (CommentAction, error) {
	switch a := CommentAction(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionAdd, ActionRemove, ActionExtend, ActionShorten, ActionSwap,
		ActionMove, ActionQuestion, ActionPreference, ActionUnclear:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown comment action %q", ErrValidation, s)
	}
}

// Confidence grades how sure the classifier is about an intent.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// CommentIntent is the structured classification of a comment's text.
// It is a pure derived value: immutable once attached unless the comment
// content changes and the comment is reclassified.
type CommentIntent struct {
	Action     CommentAction `json:"action"`
	Confidence Confidence    `json:"confidence"`
	// Details carries the comment text the classification was derived from.
	Details string `json:"details"`
	// AffectsRouting is true when applying the intent would change drives.
	AffectsRouting bool `json:"affects_routing"`
	// EstimatedTimeImpactMinutes is a signed schedule-impact estimate.
	// Nil for question/preference/unclear intents.
	EstimatedTimeImpactMinutes *int `json:"estimated_time_impact_minutes"`
	// SuggestedResolution is a short templated hint for the user.
	// Nil for question and preference intents.
	SuggestedResolution *string `json:"suggested_resolution"`
}
