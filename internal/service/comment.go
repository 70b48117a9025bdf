package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/tripweaver/backend/internal/domain"
	"github.com/pkordes/tripweaver/backend/internal/repo"
)

// CommentService implements business logic for feedback comments: creation
// with immediate classification, content updates with reclassification, the
// explicit resolve/delete transitions, and the conflict listing.
//
// Every mutation re-runs conflict detection over the trip's pending set in
// the same transaction, so conflicts_with never lags the comment data.
type CommentService struct {
	tx repo.Tx
}

// NewCommentService constructs a CommentService backed by the provided Tx.
func NewCommentService(tx repo.Tx) *CommentService {
	return &CommentService{tx: tx}
}

// Create validates, classifies, and persists a new comment, then rescans
// conflicts for the trip.
// Returns domain.ErrValidation for bad input, domain.ErrNotFound if the
// trip (or the parent comment for a reply) does not exist.
func (s *CommentService) Create(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	if err := validateComment(c); err != nil {
		return domain.Comment{}, err
	}

	var created domain.Comment
	err := s.tx.InTx(ctx, func(q repo.Queries) error {
		if _, err := q.Trips.GetByID(ctx, c.TripID); err != nil {
			return err
		}
		if c.ParentID != nil {
			if _, err := q.Comments.GetByID(ctx, c.TripID, *c.ParentID); err != nil {
				return fmt.Errorf("parent comment: %w", err)
			}
		}

		intent := ClassifyComment(ClassifyInput{
			Content:    c.Content,
			TargetType: c.TargetType,
			TargetID:   c.TargetID,
		})
		c.Intent = &intent
		c.Status = domain.StatusPending

		var err error
		created, err = q.Comments.Create(ctx, c)
		if err != nil {
			return err
		}
		if _, err := rescanConflicts(ctx, q, c.TripID); err != nil {
			return err
		}
		// Re-read so the returned comment carries any conflicts the scan found.
		created, err = q.Comments.GetByID(ctx, c.TripID, created.ID)
		return err
	})
	if err != nil {
		return domain.Comment{}, fmt.Errorf("service.CommentService.Create: %w", err)
	}
	return created, nil
}

// ListByTrip returns one page of a trip's comments plus the total count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *CommentService) ListByTrip(ctx context.Context, tripID uuid.UUID, status *domain.CommentStatus, p domain.PaginationParams) ([]domain.Comment, int64, error) {
	var (
		comments []domain.Comment
		total    int64
	)
	err := s.tx.InTx(ctx, func(q repo.Queries) error {
		if _, err := q.Trips.GetByID(ctx, tripID); err != nil {
			return err
		}
		var err error
		comments, total, err = q.Comments.ListByTrip(ctx, tripID, status, p)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("service.CommentService.ListByTrip: %w", err)
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	return comments, total, nil
}

// UpdateContent replaces a pending comment's text, reclassifies it, and
// rescans conflicts. Only the comment's author may edit it, and only while
// it is pending.
func (s *CommentService) UpdateContent(ctx context.Context, tripID, commentID, actorID uuid.UUID, content string) (domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Comment{}, fmt.Errorf("service.CommentService.UpdateContent: %w: content is required", domain.ErrValidation)
	}

	var updated domain.Comment
	err := s.tx.InTx(ctx, func(q repo.Queries) error {
		c, err := q.Comments.GetByID(ctx, tripID, commentID)
		if err != nil {
			return err
		}
		if c.AuthorID != actorID {
			return fmt.Errorf("%w: only the author may edit a comment", domain.ErrForbidden)
		}
		if c.Status != domain.StatusPending {
			return fmt.Errorf("%w: only pending comments can be edited", domain.ErrValidation)
		}

		c.Content = content
		intent := ClassifyComment(ClassifyInput{
			Content:    content,
			TargetType: c.TargetType,
			TargetID:   c.TargetID,
		})
		c.Intent = &intent

		if updated, err = q.Comments.Update(ctx, c); err != nil {
			return err
		}
		if _, err := rescanConflicts(ctx, q, tripID); err != nil {
			return err
		}
		updated, err = q.Comments.GetByID(ctx, tripID, commentID)
		return err
	})
	if err != nil {
		return domain.Comment{}, fmt.Errorf("service.CommentService.UpdateContent: %w", err)
	}
	return updated, nil
}

// Resolve transitions a pending comment to resolved and clears its conflict
// edges symmetrically. Resolution is an explicit user action, distinct from
// the addressed transition that only regeneration performs.
func (s *CommentService) Resolve(ctx context.Context, tripID, commentID, actorID uuid.UUID) (domain.Comment, error) {
	c, err := s.leavePending(ctx, tripID, commentID, actorID, domain.StatusResolved)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("service.CommentService.Resolve: %w", err)
	}
	return c, nil
}

// Delete soft-deletes a pending comment (terminal) and clears its conflict
// edges symmetrically. The row is retained.
func (s *CommentService) Delete(ctx context.Context, tripID, commentID, actorID uuid.UUID) error {
	if _, err := s.leavePending(ctx, tripID, commentID, actorID, domain.StatusDeleted); err != nil {
		return fmt.Errorf("service.CommentService.Delete: %w", err)
	}
	return nil
}

// leavePending is the shared pending→{resolved,deleted} transition:
// authorize, clear conflicts on both sides, then flip the status, all in
// one transaction so no dangling conflict reference can survive.
func (s *CommentService) leavePending(ctx context.Context, tripID, commentID, actorID uuid.UUID, to domain.CommentStatus) (domain.Comment, error) {
	var result domain.Comment
	err := s.tx.InTx(ctx, func(q repo.Queries) error {
		trip, err := q.Trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		c, err := q.Comments.GetByID(ctx, tripID, commentID)
		if err != nil {
			return err
		}
		if actorID != c.AuthorID && actorID != trip.OwnerID {
			return fmt.Errorf("%w: only the author or trip owner may modify a comment", domain.ErrForbidden)
		}
		if c.Status != domain.StatusPending {
			return fmt.Errorf("%w: comment is not pending", domain.ErrValidation)
		}

		if err := clearConflicts(ctx, q, c); err != nil {
			return err
		}

		c.Status = to
		c.ConflictsWith = nil
		result, err = q.Comments.Update(ctx, c)
		return err
	})
	return result, err
}

// Conflicts returns the currently detected conflict pairs among the trip's
// pending comments. The scan result is also persisted so conflicts_with
// stays current even if no mutation triggered a rescan recently.
func (s *CommentService) Conflicts(ctx context.Context, tripID uuid.UUID) ([]domain.ConflictPair, error) {
	var pairs []domain.ConflictPair
	err := s.tx.InTx(ctx, func(q repo.Queries) error {
		if _, err := q.Trips.GetByID(ctx, tripID); err != nil {
			return err
		}
		var err error
		pairs, err = rescanConflicts(ctx, q, tripID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service.CommentService.Conflicts: %w", err)
	}
	if pairs == nil {
		pairs = []domain.ConflictPair{}
	}
	return pairs, nil
}

// PreviewClassify classifies text without persisting anything, for the
// comment form's live preview.
func (s *CommentService) PreviewClassify(in ClassifyInput) (domain.CommentIntent, error) {
	if strings.TrimSpace(in.Content) == "" {
		return domain.CommentIntent{}, fmt.Errorf("service.CommentService.PreviewClassify: %w: content is required", domain.ErrValidation)
	}
	return ClassifyComment(in), nil
}

// validateComment enforces the creation rules.
func validateComment(c domain.Comment) error {
	if strings.TrimSpace(c.Content) == "" {
		return fmt.Errorf("%w: content is required", domain.ErrValidation)
	}
	if _, err := domain.ParseTargetType(string(c.TargetType)); err != nil {
		return err
	}
	return nil
}
