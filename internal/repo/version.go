package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tripweaver/backend/internal/domain"
)

// VersionRepo defines the persistence operations for the append-only
// itinerary version log. There is deliberately no Update or Delete: a
// version row is immutable once written.
type VersionRepo interface {
	// Create appends a version row. The unique (trip_id, version) index is
	// the database-level backstop for the strictly-increasing invariant:
	// inserting a duplicate number returns *domain.VersionRaceError.
	Create(ctx context.Context, v domain.ItineraryVersion) (domain.ItineraryVersion, error)

	// GetByNumber retrieves one version of a trip.
	// Returns domain.ErrNotFound if the trip has no such version.
	GetByNumber(ctx context.Context, tripID uuid.UUID, version int) (domain.ItineraryVersion, error)

	// ListByTrip returns all versions of a trip ordered by version ascending.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryVersion, error)
}

// pgVersionRepo is the Postgres implementation of VersionRepo.
type pgVersionRepo struct {
	db db
}

// NewVersionRepo constructs a VersionRepo backed by the provided db connection.
func NewVersionRepo(db db) VersionRepo {
	return &pgVersionRepo{db: db}
}

const versionColumns = `id, trip_id, version, data, source_type, parent_version,
	source_comment_ids, source_versions, modification_summary, created_by, created_at`

// Create appends a new immutable version row.
func (r *pgVersionRepo) Create(ctx context.Context, v domain.ItineraryVersion) (domain.ItineraryVersion, error) {
	const q = `
		INSERT INTO itinerary_versions (trip_id, version, data, source_type, parent_version,
			source_comment_ids, source_versions, modification_summary, created_by)
		VALUES (@trip_id, @version, @data, @source_type, @parent_version,
			@source_comment_ids, @source_versions, @modification_summary, @created_by)
		RETURNING ` + versionColumns

	data, err := json.Marshal(v.Data)
	if err != nil {
		return domain.ItineraryVersion{}, fmt.Errorf("repo.VersionRepo.Create: marshal data: %w", err)
	}
	commentIDs, err := json.Marshal(v.SourceCommentIDs)
	if err != nil {
		return domain.ItineraryVersion{}, fmt.Errorf("repo.VersionRepo.Create: marshal comment ids: %w", err)
	}
	sourceVersions, err := json.Marshal(v.SourceVersions)
	if err != nil {
		return domain.ItineraryVersion{}, fmt.Errorf("repo.VersionRepo.Create: marshal source versions: %w", err)
	}

	args := pgx.NamedArgs{
		"trip_id":              v.TripID,
		"version":              v.Version,
		"data":                 data,
		"source_type":          string(v.SourceType),
		"parent_version":       v.ParentVersion,
		"source_comment_ids":   commentIDs,
		"source_versions":      sourceVersions,
		"modification_summary": v.ModificationSummary,
		"created_by":           v.CreatedBy,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanVersion(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ItineraryVersion{}, &domain.VersionRaceError{TripID: v.TripID, ExpectedVersion: v.Version - 1}
		}
		return domain.ItineraryVersion{}, fmt.Errorf("repo.VersionRepo.Create: %w", err)
	}
	return result, nil
}

// GetByNumber retrieves a single version of a trip.
func (r *pgVersionRepo) GetByNumber(ctx context.Context, tripID uuid.UUID, version int) (domain.ItineraryVersion, error) {
	const q = `SELECT ` + versionColumns + `
		FROM itinerary_versions WHERE trip_id = @trip_id AND version = @version`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "version": version})
	result, err := scanVersion(row)
	if err != nil {
		return domain.ItineraryVersion{}, fmt.Errorf("repo.VersionRepo.GetByNumber: %w", err)
	}
	return result, nil
}

// ListByTrip returns the full lineage of a trip, oldest first.
func (r *pgVersionRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryVersion, error) {
	const q = `SELECT ` + versionColumns + `
		FROM itinerary_versions WHERE trip_id = @trip_id ORDER BY version ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.VersionRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	var versions []domain.ItineraryVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.VersionRepo.ListByTrip: scan: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.VersionRepo.ListByTrip: rows: %w", err)
	}

	return versions, nil
}

// scanVersion maps a single database row into a domain.ItineraryVersion.
// The jsonb columns (data, source_comment_ids, source_versions) are
// unmarshalled here so callers only ever see domain types.
func scanVersion(s scanner) (domain.ItineraryVersion, error) {
	var (
		v          domain.ItineraryVersion
		id         pgtype.UUID
		tripID     pgtype.UUID
		createdBy  pgtype.UUID
		data       []byte
		commentIDs []byte
		sourceVers []byte
	)

	err := s.Scan(&id, &tripID, &v.Version, &data, &v.SourceType, &v.ParentVersion,
		&commentIDs, &sourceVers, &v.ModificationSummary, &createdBy, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ItineraryVersion{}, domain.ErrNotFound
		}
		return domain.ItineraryVersion{}, err
	}

	v.ID = uuid.UUID(id.Bytes)
	v.TripID = uuid.UUID(tripID.Bytes)
	v.CreatedBy = uuid.UUID(createdBy.Bytes)

	if err := json.Unmarshal(data, &v.Data); err != nil {
		return domain.ItineraryVersion{}, fmt.Errorf("unmarshal data: %w", err)
	}
	if len(commentIDs) > 0 {
		if err := json.Unmarshal(commentIDs, &v.SourceCommentIDs); err != nil {
			return domain.ItineraryVersion{}, fmt.Errorf("unmarshal source_comment_ids: %w", err)
		}
	}
	if len(sourceVers) > 0 {
		if err := json.Unmarshal(sourceVers, &v.SourceVersions); err != nil {
			return domain.ItineraryVersion{}, fmt.Errorf("unmarshal source_versions: %w", err)
		}
	}

	return v, nil
}

// isUniqueViolation reports whether err is a Postgres 23505 unique violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
