package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tripweaver/backend/internal/domain"
)

// CommentRepo defines the persistence operations for Comments.
// Comments are mutated in place (status, intent, conflicts_with) and never
// physically deleted; soft delete is a status transition.
type CommentRepo interface {
	// Create inserts a new comment and returns the persisted record.
	Create(ctx context.Context, c domain.Comment) (domain.Comment, error)

	// GetByID retrieves a comment scoped to a trip.
	// Returns domain.ErrNotFound if no such comment exists under that trip.
	GetByID(ctx context.Context, tripID, commentID uuid.UUID) (domain.Comment, error)

	// ListByTrip returns a page of comments for a trip, oldest first,
	// optionally filtered by status, plus the total matching count.
	ListByTrip(ctx context.Context, tripID uuid.UUID, status *domain.CommentStatus, p domain.PaginationParams) ([]domain.Comment, int64, error)

	// ListPending returns all pending comments for a trip, oldest first.
	// This is the working set for conflict detection and regeneration.
	ListPending(ctx context.Context, tripID uuid.UUID) ([]domain.Comment, error)

	// Update overwrites the mutable fields (content, intent, conflicts_with,
	// status, addressed_in_version) and returns the updated record.
	Update(ctx context.Context, c domain.Comment) (domain.Comment, error)

	// SetConflicts replaces a comment's conflicts_with set.
	SetConflicts(ctx context.Context, commentID uuid.UUID, conflicts []uuid.UUID) error

	// MarkAddressed moves the given pending comments to addressed, records
	// the version that applied them, and clears their conflict sets.
	MarkAddressed(ctx context.Context, tripID uuid.UUID, commentIDs []uuid.UUID, version int) error
}

// pgCommentRepo is the Postgres implementation of CommentRepo.
type pgCommentRepo struct {
	db db
}

// NewCommentRepo constructs a CommentRepo backed by the provided db connection.
func NewCommentRepo(db db) CommentRepo {
	return &pgCommentRepo{db: db}
}

const commentColumns = `id, trip_id, author_id, target_type, target_id, content, selected_text,
	parent_id, intent, conflicts_with, status, addressed_in_version, created_at, updated_at`

// Create inserts a new comment row.
func (r *pgCommentRepo) Create(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	const q = `
		INSERT INTO comments (trip_id, author_id, target_type, target_id, content,
			selected_text, parent_id, intent, conflicts_with)
		VALUES (@trip_id, @author_id, @target_type, @target_id, @content,
			@selected_text, @parent_id, @intent, @conflicts_with)
		RETURNING ` + commentColumns

	intent, conflicts, err := marshalCommentFields(c)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("repo.CommentRepo.Create: %w", err)
	}

	args := pgx.NamedArgs{
		"trip_id":        c.TripID,
		"author_id":      c.AuthorID,
		"target_type":    string(c.TargetType),
		"target_id":      c.TargetID,
		"content":        c.Content,
		"selected_text":  c.SelectedText,
		"parent_id":      c.ParentID,
		"intent":         intent,
		"conflicts_with": conflicts,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanComment(row)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("repo.CommentRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a comment scoped to its trip.
func (r *pgCommentRepo) GetByID(ctx context.Context, tripID, commentID uuid.UUID) (domain.Comment, error) {
	const q = `SELECT ` + commentColumns + `
		FROM comments WHERE trip_id = @trip_id AND id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "id": commentID})
	result, err := scanComment(row)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("repo.CommentRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListByTrip returns one page of a trip's comments plus the total count.
func (r *pgCommentRepo) ListByTrip(ctx context.Context, tripID uuid.UUID, status *domain.CommentStatus, p domain.PaginationParams) ([]domain.Comment, int64, error) {
	const q = `SELECT ` + commentColumns + `
		FROM comments
		WHERE trip_id = @trip_id AND (@status::text IS NULL OR status = @status)
		ORDER BY created_at ASC, id ASC
		LIMIT @limit OFFSET @offset`
	const countQ = `
		SELECT count(*) FROM comments
		WHERE trip_id = @trip_id AND (@status::text IS NULL OR status = @status)`

	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}
	args := pgx.NamedArgs{
		"trip_id": tripID,
		"status":  statusArg,
		"limit":   p.Limit,
		"offset":  p.Offset(),
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.CommentRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.CommentRepo.ListByTrip: scan: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.CommentRepo.ListByTrip: rows: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.CommentRepo.ListByTrip: count: %w", err)
	}

	return comments, total, nil
}

// ListPending returns every pending comment for the trip, oldest first.
func (r *pgCommentRepo) ListPending(ctx context.Context, tripID uuid.UUID) ([]domain.Comment, error) {
	const q = `SELECT ` + commentColumns + `
		FROM comments
		WHERE trip_id = @trip_id AND status = 'pending'
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.CommentRepo.ListPending: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.CommentRepo.ListPending: scan: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.CommentRepo.ListPending: rows: %w", err)
	}

	return comments, nil
}

// Update overwrites the mutable fields of a comment.
func (r *pgCommentRepo) Update(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	const q = `
		UPDATE comments
		SET content              = @content,
		    intent               = @intent,
		    conflicts_with       = @conflicts_with,
		    status               = @status,
		    addressed_in_version = @addressed_in_version,
		    updated_at           = now()
		WHERE trip_id = @trip_id AND id = @id
		RETURNING ` + commentColumns

	intent, conflicts, err := marshalCommentFields(c)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("repo.CommentRepo.Update: %w", err)
	}

	args := pgx.NamedArgs{
		"trip_id":              c.TripID,
		"id":                   c.ID,
		"content":              c.Content,
		"intent":               intent,
		"conflicts_with":       conflicts,
		"status":               string(c.Status),
		"addressed_in_version": c.AddressedInVersion,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanComment(row)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("repo.CommentRepo.Update: %w", err)
	}
	return result, nil
}

// SetConflicts replaces the conflicts_with set for one comment.
func (r *pgCommentRepo) SetConflicts(ctx context.Context, commentID uuid.UUID, conflicts []uuid.UUID) error {
	const q = `
		UPDATE comments
		SET conflicts_with = @conflicts_with, updated_at = now()
		WHERE id = @id`

	if conflicts == nil {
		conflicts = []uuid.UUID{}
	}
	data, err := json.Marshal(conflicts)
	if err != nil {
		return fmt.Errorf("repo.CommentRepo.SetConflicts: marshal: %w", err)
	}

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": commentID, "conflicts_with": data})
	if err != nil {
		return fmt.Errorf("repo.CommentRepo.SetConflicts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.CommentRepo.SetConflicts: %w", domain.ErrNotFound)
	}
	return nil
}

// MarkAddressed transitions the given pending comments to addressed in bulk.
// Conflict sets are cleared as part of the same statement because a comment
// leaving pending must not keep (or appear in) any conflict edges.
func (r *pgCommentRepo) MarkAddressed(ctx context.Context, tripID uuid.UUID, commentIDs []uuid.UUID, version int) error {
	if len(commentIDs) == 0 {
		return nil
	}

	const q = `
		UPDATE comments
		SET status               = 'addressed',
		    addressed_in_version = @version,
		    conflicts_with       = '[]'::jsonb,
		    updated_at           = now()
		WHERE trip_id = @trip_id AND status = 'pending' AND id = ANY(@ids)`

	ids := make([]string, len(commentIDs))
	for i, id := range commentIDs {
		ids[i] = id.String()
	}

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID, "version": version, "ids": ids})
	if err != nil {
		return fmt.Errorf("repo.CommentRepo.MarkAddressed: %w", err)
	}
	if int(tag.RowsAffected()) != len(commentIDs) {
		// A comment left pending between snapshot and commit; the caller's
		// transaction must roll back rather than address a partial set.
		return fmt.Errorf("repo.CommentRepo.MarkAddressed: expected %d pending comments, updated %d: %w",
			len(commentIDs), tag.RowsAffected(), domain.ErrNotFound)
	}
	return nil
}

// marshalCommentFields encodes the jsonb columns for insert/update.
func marshalCommentFields(c domain.Comment) (intent, conflicts []byte, err error) {
	if c.Intent != nil {
		intent, err = json.Marshal(c.Intent)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal intent: %w", err)
		}
	}
	set := c.ConflictsWith
	if set == nil {
		set = []uuid.UUID{}
	}
	conflicts, err = json.Marshal(set)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal conflicts_with: %w", err)
	}
	return intent, conflicts, nil
}

// scanComment maps a single database row into a domain.Comment.
func scanComment(s scanner) (domain.Comment, error) {
	var (
		c         domain.Comment
		id        pgtype.UUID
		tripID    pgtype.UUID
		authorID  pgtype.UUID
		parentID  pgtype.UUID
		intent    []byte
		conflicts []byte
	)

	err := s.Scan(&id, &tripID, &authorID, &c.TargetType, &c.TargetID, &c.Content, &c.SelectedText,
		&parentID, &intent, &conflicts, &c.Status, &c.AddressedInVersion, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Comment{}, domain.ErrNotFound
		}
		return domain.Comment{}, err
	}

	c.ID = uuid.UUID(id.Bytes)
	c.TripID = uuid.UUID(tripID.Bytes)
	c.AuthorID = uuid.UUID(authorID.Bytes)
	if parentID.Valid {
		pid := uuid.UUID(parentID.Bytes)
		c.ParentID = &pid
	}

	if len(intent) > 0 {
		c.Intent = &domain.CommentIntent{}
		if err := json.Unmarshal(intent, c.Intent); err != nil {
			return domain.Comment{}, fmt.Errorf("unmarshal intent: %w", err)
		}
	}
	c.ConflictsWith = []uuid.UUID{}
	if len(conflicts) > 0 {
		if err := json.Unmarshal(conflicts, &c.ConflictsWith); err != nil {
			return domain.Comment{}, fmt.Errorf("unmarshal conflicts_with: %w", err)
		}
	}

	return c, nil
}
