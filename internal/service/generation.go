package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tripweaver/backend/internal/domain"
	"github.com/pkordes/tripweaver/backend/internal/repo"
)

// AIClient is the boundary to the external AI generation collaborator.
// Defined here, in the consumer package, so handler and service tests can
// inject a fake without touching the HTTP client.
type AIClient interface {
	// GenerateItinerary sends a consolidated request and returns the parsed
	// result. Failures are *domain.GenerationError values: stage "transport"
	// for call/timeout problems, stage "response" for unusable payloads.
	GenerateItinerary(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}

// GenerationService gates and drives itinerary generation: the initial
// generation with cache-match short-circuit, and the feedback-driven full
// regeneration.
type GenerationService struct {
	tx      repo.Tx
	ai      AIClient
	matcher *MatcherService
	// quota is the number of free regenerations per trip.
	quota int
	log   *slog.Logger
}

// NewGenerationService constructs a GenerationService.
func NewGenerationService(tx repo.Tx, ai AIClient, matcher *MatcherService, quota int, log *slog.Logger) *GenerationService {
	return &GenerationService{tx: tx, ai: ai, matcher: matcher, quota: quota, log: log}
}

// Generate produces a trip's first itinerary version (0 → 1).
//
// The candidate pool is consulted first: an exact cache match becomes
// version 1 without an AI call (source_type=similar). Any other outcome
// goes to the AI collaborator (source_type=base); a non-exact match's
// adjustment tasks are noted in the modification summary for the
// differential-generation path to pick up.
func (s *GenerationService) Generate(ctx context.Context, tripID, actorID uuid.UUID) (domain.ItineraryVersion, error) {
	var trip domain.Trip
	err := s.tx.InTx(ctx, func(q repo.Queries) error {
		var err error
		trip, err = q.Trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		if trip.OwnerID != actorID {
			return fmt.Errorf("%w: only the trip owner may generate an itinerary", domain.ErrForbidden)
		}
		if trip.ActiveVersion != 0 {
			return fmt.Errorf("%w: trip already has an itinerary; use regenerate", domain.ErrValidation)
		}
		return nil
	})
	if err != nil {
		return domain.ItineraryVersion{}, fmt.Errorf("service.GenerationService.Generate: %w", err)
	}

	match, err := s.matcher.Match(ctx, trip)
	if err != nil {
		// A pool outage must not block fresh generation.
		s.log.WarnContext(ctx, "cache pool unavailable, generating fresh", "trip_id", tripID, "error", err)
		match = nil
	}

	var (
		itinerary  domain.Itinerary
		sourceType domain.SourceType
		summary    string
	)
	if match != nil && match.MatchType == domain.MatchExact {
		itinerary = match.Entry.Data
		sourceType = domain.SourceSimilar
		summary = fmt.Sprintf("Adopted cached itinerary (score %d)", match.Score)
		s.log.InfoContext(ctx, "cache hit, skipping generation", "trip_id", tripID, "score", match.Score)
	} else {
		result, err := s.ai.GenerateItinerary(ctx, domain.GenerationRequest{Constraints: constraintsOf(trip)})
		if err != nil {
			return domain.ItineraryVersion{}, fmt.Errorf("service.GenerationService.Generate: %w", err)
		}
		itinerary = result.Itinerary
		sourceType = domain.SourceBase
		summary = "Initial itinerary"
		if match != nil {
			summary += fmt.Sprintf(" (pool candidate scored %d, %s: %s)", match.Score, match.MatchType, taskNames(match.Tasks))
		}
	}
	itinerary.GeneratedAt = time.Now().UTC()

	var created domain.ItineraryVersion
	err = s.tx.InTx(ctx, func(q repo.Queries) error {
		trip, err := q.Trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		if trip.ActiveVersion != 0 {
			return &domain.VersionRaceError{TripID: tripID, ExpectedVersion: 0}
		}
		created, err = appendAndAdvance(ctx, q, trip, domain.ItineraryVersion{
			TripID:              tripID,
			Version:             1,
			Data:                itinerary,
			SourceType:          sourceType,
			ModificationSummary: summary,
			CreatedBy:           actorID,
		}, 0)
		return err
	})
	if err != nil {
		return domain.ItineraryVersion{}, fmt.Errorf("service.GenerationService.Generate: %w", err)
	}
	return created, nil
}

// Regenerate runs the gated full regeneration. Preconditions, checked in
// order with short-circuiting: the caller owns the trip, at least one
// pending comment exists, no pending comment has unresolved conflicts, and
// the free-regeneration quota is not exhausted.
//
// The AI call happens outside any transaction; the commit transaction then
// re-verifies that the pending set is unchanged and advances the version
// pointer conditionally, so a comment resolved (or a version committed) in
// the window surfaces as a *domain.VersionRaceError instead of silently
// applying stale feedback. Any failure leaves no partial state.
func (s *GenerationService) Regenerate(ctx context.Context, tripID, actorID uuid.UUID) (domain.ItineraryVersion, error) {
	var (
		trip    domain.Trip
		pending []domain.Comment
		current domain.ItineraryVersion
	)
	err := s.tx.InTx(ctx, func(q repo.Queries) error {
		var err error
		trip, pending, current, err = s.checkGates(ctx, q, tripID, actorID)
		return err
	})
	if err != nil {
		return domain.ItineraryVersion{}, fmt.Errorf("service.GenerationService.Regenerate: %w", err)
	}

	result, err := s.ai.GenerateItinerary(ctx, domain.GenerationRequest{
		Current:     &current.Data,
		Feedback:    feedbackItems(pending),
		Constraints: constraintsOf(trip),
	})
	if err != nil {
		return domain.ItineraryVersion{}, fmt.Errorf("service.GenerationService.Regenerate: %w", err)
	}

	appliedIDs := make([]uuid.UUID, len(pending))
	for i, c := range pending {
		appliedIDs[i] = c.ID
	}

	var created domain.ItineraryVersion
	err = s.tx.InTx(ctx, func(q repo.Queries) error {
		// Re-run every gate inside the committing transaction: the comment
		// set and quota must still be exactly what the AI call was built
		// from. The conditional pointer advance covers the version itself.
		freshTrip, freshPending, _, err := s.checkGates(ctx, q, tripID, actorID)
		if err != nil {
			return err
		}
		if freshTrip.ActiveVersion != trip.ActiveVersion || !samePendingSet(pending, freshPending) {
			return &domain.VersionRaceError{TripID: tripID, ExpectedVersion: trip.ActiveVersion}
		}

		newVersion := trip.ActiveVersion + 1
		doc := result.Itinerary
		doc.GeneratedAt = time.Now().UTC()

		parent := trip.ActiveVersion
		created, err = appendAndAdvance(ctx, q, trip, domain.ItineraryVersion{
			TripID:              tripID,
			Version:             newVersion,
			Data:                doc,
			SourceType:          domain.SourceRegeneration,
			ParentVersion:       &parent,
			SourceCommentIDs:    appliedIDs,
			ModificationSummary: regenerationSummary(result.ChangesMade, len(pending)),
			CreatedBy:           actorID,
		}, 1)
		if err != nil {
			return err
		}
		return q.Comments.MarkAddressed(ctx, tripID, appliedIDs, newVersion)
	})
	if err != nil {
		return domain.ItineraryVersion{}, fmt.Errorf("service.GenerationService.Regenerate: %w", err)
	}

	s.log.InfoContext(ctx, "regeneration complete",
		"trip_id", tripID, "version", created.Version, "comments_applied", len(appliedIDs))
	return created, nil
}

// checkGates evaluates the regeneration preconditions in their contractual
// order and returns the snapshot the request will be built from.
func (s *GenerationService) checkGates(ctx context.Context, q repo.Queries, tripID, actorID uuid.UUID) (domain.Trip, []domain.Comment, domain.ItineraryVersion, error) {
	fail := func(err error) (domain.Trip, []domain.Comment, domain.ItineraryVersion, error) {
		return domain.Trip{}, nil, domain.ItineraryVersion{}, err
	}

	trip, err := q.Trips.GetByID(ctx, tripID)
	if err != nil {
		return fail(err)
	}
	if trip.OwnerID != actorID {
		return fail(fmt.Errorf("%w: only the trip owner may regenerate", domain.ErrForbidden))
	}

	pending, err := q.Comments.ListPending(ctx, tripID)
	if err != nil {
		return fail(err)
	}
	if len(pending) == 0 {
		return fail(fmt.Errorf("%w: no pending feedback to apply", domain.ErrValidation))
	}

	if hasConflicts(pending) {
		pairs, _, derr := DetectConflicts(intentTagged(pending))
		if derr != nil {
			return fail(derr)
		}
		return fail(&domain.ConflictGateError{Conflicts: pairs})
	}

	if trip.RegenerationsUsed >= s.quota {
		return fail(fmt.Errorf("%w: %d of %d used", domain.ErrQuotaExceeded, trip.RegenerationsUsed, s.quota))
	}

	if trip.ActiveVersion == 0 {
		return fail(fmt.Errorf("%w: trip has no itinerary yet", domain.ErrValidation))
	}
	current, err := q.Versions.GetByNumber(ctx, tripID, trip.ActiveVersion)
	if err != nil {
		return fail(err)
	}

	return trip, pending, current, nil
}

func hasConflicts(comments []domain.Comment) bool {
	for _, c := range comments {
		if c.HasConflicts() {
			return true
		}
	}
	return false
}

func intentTagged(comments []domain.Comment) []domain.Comment {
	tagged := make([]domain.Comment, 0, len(comments))
	for _, c := range comments {
		if c.Intent != nil {
			tagged = append(tagged, c)
		}
	}
	return tagged
}

// samePendingSet compares two pending snapshots by id.
func samePendingSet(a, b []domain.Comment) bool {
	if len(a) != len(b) {
		return false
	}
	ids := make(map[uuid.UUID]struct{}, len(a))
	for _, c := range a {
		ids[c.ID] = struct{}{}
	}
	for _, c := range b {
		if _, ok := ids[c.ID]; !ok {
			return false
		}
	}
	return true
}

func feedbackItems(pending []domain.Comment) []domain.FeedbackItem {
	items := make([]domain.FeedbackItem, len(pending))
	for i, c := range pending {
		item := domain.FeedbackItem{
			CommentID:  c.ID,
			TargetType: c.TargetType,
			TargetID:   c.TargetID,
			Content:    c.Content,
		}
		if c.Intent != nil {
			item.Action = c.Intent.Action
			item.Confidence = c.Intent.Confidence
		}
		items[i] = item
	}
	return items
}

func constraintsOf(trip domain.Trip) domain.TripConstraints {
	return domain.TripConstraints{
		Destination:   trip.Destination,
		DurationDays:  trip.DurationDays,
		Pacing:        trip.Pacing,
		Anchors:       trip.Anchors,
		TravelerType:  trip.TravelerType,
		TravelerCount: trip.TravelerCount,
	}
}

func regenerationSummary(changes []string, commentCount int) string {
	if len(changes) == 0 {
		return fmt.Sprintf("Regenerated from %d feedback item(s)", commentCount)
	}
	summary := ""
	for i, c := range changes {
		if i > 0 {
			summary += "; "
		}
		summary += c
	}
	return summary
}

func taskNames(tasks []domain.GenerationTask) string {
	names := ""
	for i, t := range tasks {
		if i > 0 {
			names += ", "
		}
		names += string(t.Type)
	}
	return names
}
