package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/tripweaver/backend/internal/domain"
	"github.com/pkordes/tripweaver/backend/internal/repo"
)

// TripService implements business logic for Trip operations.
type TripService struct {
	tx repo.Tx
}

// NewTripService constructs a TripService backed by the provided Tx.
func NewTripService(tx repo.Tx) *TripService {
	return &TripService{tx: tx}
}

// Create validates and persists a new trip. The destination slug and
// duration are derived here so callers never supply them.
// Returns domain.ErrValidation if input violates business rules.
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if err := validateTrip(&trip); err != nil {
		return domain.Trip{}, err
	}

	var created domain.Trip
	err := s.tx.InTx(ctx, func(q repo.Queries) error {
		var err error
		created, err = q.Trips.Create(ctx, trip)
		return err
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return created, nil
}

// GetByID returns a single trip by ID.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	var trip domain.Trip
	err := s.tx.InTx(ctx, func(q repo.Queries) error {
		var err error
		trip, err = q.Trips.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, nil
}

// ListByOwner returns all trips owned by the actor.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Trip, error) {
	var trips []domain.Trip
	err := s.tx.InTx(ctx, func(q repo.Queries) error {
		var err error
		trips, err = q.Trips.ListByOwner(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service.TripService.ListByOwner: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, nil
}

// validateTrip enforces the creation rules and fills the derived fields.
//   - Destination must be non-empty (whitespace-only is rejected).
//   - EndDate must not be before StartDate; duration is the inclusive span.
//   - Pacing must be one of the closed set.
//   - TravelerCount must be at least 1.
//   - Anchors are trimmed and deduplicated, preserving order.
func validateTrip(trip *domain.Trip) error {
	if strings.TrimSpace(trip.Destination) == "" {
		return fmt.Errorf("%w: destination is required", domain.ErrValidation)
	}
	if trip.StartDate.IsZero() || trip.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", domain.ErrValidation)
	}
	if trip.EndDate.Before(trip.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	if _, err := domain.ParsePacing(string(trip.Pacing)); err != nil {
		return err
	}
	if trip.TravelerCount < 1 {
		return fmt.Errorf("%w: traveler_count must be at least 1", domain.ErrValidation)
	}
	if strings.TrimSpace(trip.TravelerType) == "" {
		return fmt.Errorf("%w: traveler_type is required", domain.ErrValidation)
	}

	trip.DestinationSlug = domain.Slugify(trip.Destination)
	trip.DurationDays = int(trip.EndDate.Sub(trip.StartDate).Hours()/24) + 1
	trip.Anchors = dedupeAnchors(trip.Anchors)
	return nil
}

// dedupeAnchors trims, lowercases, and deduplicates anchors, keeping order.
func dedupeAnchors(anchors []string) []string {
	seen := make(map[string]struct{}, len(anchors))
	out := make([]string, 0, len(anchors))
	for _, a := range anchors {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
