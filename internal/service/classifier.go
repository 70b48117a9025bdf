// Package service contains the business logic for the Tripweaver API.
// Services validate inputs, enforce business rules, and orchestrate repo
// calls. No SQL lives here; services depend on repo interfaces, not
// implementations.
package service

import (
	"fmt"
	"strings"

	"github.com/pkordes/tripweaver/backend/internal/domain"
)

// ClassifyInput is the context available when classifying one comment.
type ClassifyInput struct {
	Content    string
	TargetType domain.TargetType
	TargetID   string
	// DayNumber, when known, makes the suggested resolution more specific.
	DayNumber *int
}

// intentCategory is one rule in the ordered classification cascade.
type intentCategory struct {
	action         domain.CommentAction
	keywords       []string
	confidence     domain.Confidence
	affectsRouting bool
	// timeImpact is the signed schedule estimate in minutes; nil categories
	// (question, preference, unclear) have no estimate.
	timeImpact *int
}

func minutes(n int) *int { return &n }

// intentCategories is checked strictly in order: the first category with a
// matching keyword wins, regardless of how many keywords from later
// categories also appear. The order itself is a contract: "can we add a
// puffin tour?" is an add, not a question, because add is checked first.
var intentCategories = []intentCategory{
	{
		action:         domain.ActionRemove,
		keywords:       []string{"remove", "delete", "skip", "drop", "take out", "get rid of", "cut the", "don't want to visit"},
		confidence:     domain.ConfidenceHigh,
		affectsRouting: true,
		timeImpact:     minutes(-60),
	},
	{
		action:         domain.ActionAdd,
		keywords:       []string{"add", "include", "insert", "squeeze in", "fit in", "also visit", "also see", "can we do"},
		confidence:     domain.ConfidenceMedium,
		affectsRouting: true,
		timeImpact:     minutes(60),
	},
	{
		action:         domain.ActionExtend,
		keywords:       []string{"extend", "more time", "stay longer", "longer at", "not long enough", "too rushed", "too short"},
		confidence:     domain.ConfidenceHigh,
		affectsRouting: false,
		timeImpact:     minutes(30),
	},
	{
		action:         domain.ActionShorten,
		keywords:       []string{"shorten", "less time", "too long", "too much time", "make it quicker", "briefer"},
		confidence:     domain.ConfidenceHigh,
		affectsRouting: false,
		timeImpact:     minutes(-30),
	},
	{
		action:         domain.ActionSwap,
		keywords:       []string{"swap", "switch", "replace", "instead of", "substitute", "trade"},
		confidence:     domain.ConfidenceMedium,
		affectsRouting: true,
		timeImpact:     minutes(0),
	},
	{
		action:         domain.ActionMove,
		keywords:       []string{"move", "reschedule", "reorder", "earlier in", "later in", "different day", "another day"},
		confidence:     domain.ConfidenceMedium,
		affectsRouting: true,
		timeImpact:     minutes(0),
	},
}

// preferenceKeywords is the final keyword category, checked after question.
var preferenceKeywords = []string{
	"prefer", "would rather", "love", "hate", "don't like", "not a fan",
	"favorite", "enjoy", "keen on",
}

// ClassifyComment maps free-text feedback to a structured intent. It is a
// pure, deterministic function: case-insensitive substring matching over an
// ordered cascade of remove, add, extend, shorten, swap, move, then question
// (any '?'), then preference, then unclear. The first match wins.
func ClassifyComment(in ClassifyInput) domain.CommentIntent {
	text := strings.ToLower(in.Content)

	for _, cat := range intentCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(text, kw) {
				return buildIntent(in, cat.action, cat.confidence, cat.affectsRouting, cat.timeImpact)
			}
		}
	}

	if strings.Contains(text, "?") {
		return buildIntent(in, domain.ActionQuestion, domain.ConfidenceHigh, false, nil)
	}
	for _, kw := range preferenceKeywords {
		if strings.Contains(text, kw) {
			return buildIntent(in, domain.ActionPreference, domain.ConfidenceLow, false, nil)
		}
	}
	return buildIntent(in, domain.ActionUnclear, domain.ConfidenceLow, false, nil)
}

func buildIntent(in ClassifyInput, action domain.CommentAction, conf domain.Confidence, routing bool, impact *int) domain.CommentIntent {
	intent := domain.CommentIntent{
		Action:                     action,
		Confidence:                 conf,
		Details:                    strings.TrimSpace(in.Content),
		AffectsRouting:             routing,
		EstimatedTimeImpactMinutes: impact,
	}
	if res := suggestedResolution(in, action); res != "" {
		intent.SuggestedResolution = &res
	}
	return intent
}

// suggestedResolution renders the per-action template against the comment's
// target. Question and preference intents get no suggestion; they are for
// a human to answer, not for the engine to act on.
func suggestedResolution(in ClassifyInput, action domain.CommentAction) string {
	target := targetLabel(in)
	switch action {
	case domain.ActionRemove:
		return fmt.Sprintf("Remove %s from the plan", target)
	case domain.ActionAdd:
		return fmt.Sprintf("Add the requested item to %s", target)
	case domain.ActionExtend:
		return fmt.Sprintf("Allow more time for %s", target)
	case domain.ActionShorten:
		return fmt.Sprintf("Reduce the time spent on %s", target)
	case domain.ActionSwap:
		return fmt.Sprintf("Replace %s with the suggested alternative", target)
	case domain.ActionMove:
		return fmt.Sprintf("Reschedule %s as requested", target)
	case domain.ActionUnclear:
		return "Ask the traveller to clarify what should change"
	default:
		return ""
	}
}

// targetLabel names the comment's subject: the explicit target id when set,
// otherwise the day, otherwise the target type.
func targetLabel(in ClassifyInput) string {
	switch {
	case in.TargetID != "":
		return in.TargetID
	case in.DayNumber != nil:
		return fmt.Sprintf("day %d", *in.DayNumber)
	case in.TargetType != "":
		return "the " + string(in.TargetType)
	default:
		return "the itinerary"
	}
}
