package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tripweaver/backend/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListByOwner returns all trips owned by the given actor,
	// ordered by start_date descending.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Trip, error)

	// AdvanceActiveVersion moves the trip's version pointer from
	// expectedVersion to newVersion, adds regenerationsDelta to
	// regenerations_used, and marks the trip planned.
	//
	// The update is conditional on active_version = expectedVersion. If a
	// concurrent writer advanced the pointer first, no row matches and a
	// *domain.VersionRaceError is returned; if the trip does not exist at
	// all, domain.ErrNotFound.
	AdvanceActiveVersion(ctx context.Context, tripID uuid.UUID, expectedVersion, newVersion, regenerationsDelta int) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, owner_id, destination, destination_slug, start_date, end_date,
	duration_days, pacing, anchors, traveler_type, traveler_count,
	active_version, regenerations_used, status, created_at, updated_at`

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (owner_id, destination, destination_slug, start_date, end_date,
			duration_days, pacing, anchors, traveler_type, traveler_count)
		VALUES (@owner_id, @destination, @destination_slug, @start_date, @end_date,
			@duration_days, @pacing, @anchors, @traveler_type, @traveler_count)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"owner_id":         trip.OwnerID,
		"destination":      trip.Destination,
		"destination_slug": trip.DestinationSlug,
		"start_date":       trip.StartDate,
		"end_date":         trip.EndDate,
		"duration_days":    trip.DurationDays,
		"pacing":           string(trip.Pacing),
		"anchors":          trip.Anchors,
		"traveler_type":    trip.TravelerType,
		"traveler_count":   trip.TravelerCount,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListByOwner returns the actor's trips, most recent start date first.
func (r *pgTripRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE owner_id = @owner_id ORDER BY start_date DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByOwner: %w", err)
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.ListByOwner: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByOwner: rows: %w", err)
	}

	return trips, nil
}

// AdvanceActiveVersion performs the optimistic version-pointer advance.
// The WHERE clause on active_version is the serialization point for every
// version-producing operation: two concurrent writers both read version N,
// but only one UPDATE matches, so version numbers can never collide.
func (r *pgTripRepo) AdvanceActiveVersion(ctx context.Context, tripID uuid.UUID, expectedVersion, newVersion, regenerationsDelta int) error {
	const q = `
		UPDATE trips
		SET active_version     = @new_version,
		    regenerations_used = regenerations_used + @regen_delta,
		    status             = 'planned',
		    updated_at         = now()
		WHERE id = @id AND active_version = @expected_version`

	args := pgx.NamedArgs{
		"id":               tripID,
		"new_version":      newVersion,
		"expected_version": expectedVersion,
		"regen_delta":      regenerationsDelta,
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("repo.TripRepo.AdvanceActiveVersion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a lost race from a missing trip.
		if _, err := r.GetByID(ctx, tripID); err != nil {
			return fmt.Errorf("repo.TripRepo.AdvanceActiveVersion: %w", domain.ErrNotFound)
		}
		return &domain.VersionRaceError{TripID: tripID, ExpectedVersion: expectedVersion}
	}
	return nil
}

// scanTrip maps a single database row into a domain.Trip.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t       domain.Trip
		id      pgtype.UUID
		ownerID pgtype.UUID
	)

	err := s.Scan(&id, &ownerID, &t.Destination, &t.DestinationSlug, &t.StartDate, &t.EndDate,
		&t.DurationDays, &t.Pacing, &t.Anchors, &t.TravelerType, &t.TravelerCount,
		&t.ActiveVersion, &t.RegenerationsUsed, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.OwnerID = uuid.UUID(ownerID.Bytes)
	return t, nil
}
