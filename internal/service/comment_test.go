package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripweaver/backend/internal/domain"
	"github.com/pkordes/tripweaver/backend/internal/service"
)

func validComment(tripID, authorID uuid.UUID) domain.Comment {
	return domain.Comment{
		TripID:     tripID,
		AuthorID:   authorID,
		TargetType: domain.TargetSpot,
		TargetID:   "spot-glacier-hike",
		Content:    "please remove the glacier hike",
	}
}

// commentStore is a tiny in-memory comment table for tests that need the
// create / rescan / re-read round trip to be observable.
type commentStore struct {
	byID map[uuid.UUID]domain.Comment
}

func newCommentStore() *commentStore {
	return &commentStore{byID: make(map[uuid.UUID]domain.Comment)}
}

func (s *commentStore) repo() *mockCommentRepo {
	return &mockCommentRepo{
		create: func(_ context.Context, c domain.Comment) (domain.Comment, error) {
			c.ID = uuid.New()
			s.byID[c.ID] = c
			return c, nil
		},
		getByID: func(_ context.Context, _, commentID uuid.UUID) (domain.Comment, error) {
			c, ok := s.byID[commentID]
			if !ok {
				return domain.Comment{}, domain.ErrNotFound
			}
			return c, nil
		},
		listPending: func(_ context.Context, _ uuid.UUID) ([]domain.Comment, error) {
			var pending []domain.Comment
			for _, c := range s.byID {
				if c.Status == domain.StatusPending {
					pending = append(pending, c)
				}
			}
			return pending, nil
		},
		update: func(_ context.Context, c domain.Comment) (domain.Comment, error) {
			if _, ok := s.byID[c.ID]; !ok {
				return domain.Comment{}, domain.ErrNotFound
			}
			s.byID[c.ID] = c
			return c, nil
		},
		setConflicts: func(_ context.Context, commentID uuid.UUID, conflicts []uuid.UUID) error {
			c, ok := s.byID[commentID]
			if !ok {
				return domain.ErrNotFound
			}
			c.ConflictsWith = conflicts
			s.byID[commentID] = c
			return nil
		},
	}
}

func tripOwnedBy(ownerID uuid.UUID) *mockTripRepo {
	return &mockTripRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
			return domain.Trip{ID: id, OwnerID: ownerID}, nil
		},
	}
}

// ---- Create ----------------------------------------------------------------

func TestCommentService_Create_classifiesAndPersists(t *testing.T) {
	tripID, author := uuid.New(), uuid.New()
	store := newCommentStore()
	svc := service.NewCommentService(newTx(tripOwnedBy(uuid.New()), nil, store.repo()))

	got, err := svc.Create(context.Background(), validComment(tripID, author))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	require.NotNil(t, got.Intent)
	assert.Equal(t, domain.ActionRemove, got.Intent.Action)
	assert.Equal(t, domain.ConfidenceHigh, got.Intent.Confidence)
}

func TestCommentService_Create_detectsConflictWithExisting(t *testing.T) {
	tripID, author := uuid.New(), uuid.New()
	store := newCommentStore()
	svc := service.NewCommentService(newTx(tripOwnedBy(uuid.New()), nil, store.repo()))

	first, err := svc.Create(context.Background(), validComment(tripID, author))
	require.NoError(t, err)
	assert.Empty(t, first.ConflictsWith)

	// An extend against the same spot conflicts with the pending remove.
	second := validComment(tripID, author)
	second.Content = "we need more time at the glacier hike"
	got, err := svc.Create(context.Background(), second)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID}, got.ConflictsWith)

	// The existing comment's set was updated symmetrically.
	updated := store.byID[first.ID]
	assert.Equal(t, []uuid.UUID{got.ID}, updated.ConflictsWith)
}

func TestCommentService_Create_tripNotFound(t *testing.T) {
	svc := service.NewCommentService(newTx(&mockTripRepo{
		getByID: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) {
			return domain.Trip{}, domain.ErrNotFound
		},
	}, nil, newCommentStore().repo()))

	_, err := svc.Create(context.Background(), validComment(uuid.New(), uuid.New()))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCommentService_Create_missingParent(t *testing.T) {
	store := newCommentStore()
	svc := service.NewCommentService(newTx(tripOwnedBy(uuid.New()), nil, store.repo()))

	c := validComment(uuid.New(), uuid.New())
	missing := uuid.New()
	c.ParentID = &missing

	_, err := svc.Create(context.Background(), c)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCommentService_Create_validation(t *testing.T) {
	svc := service.NewCommentService(newTx(nil, nil, nil))

	c := validComment(uuid.New(), uuid.New())
	c.Content = "   "
	_, err := svc.Create(context.Background(), c)
	assert.ErrorIs(t, err, domain.ErrValidation)

	c = validComment(uuid.New(), uuid.New())
	c.TargetType = "paragraph"
	_, err = svc.Create(context.Background(), c)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- UpdateContent ---------------------------------------------------------

func TestCommentService_UpdateContent_reclassifies(t *testing.T) {
	tripID, author := uuid.New(), uuid.New()
	store := newCommentStore()
	svc := service.NewCommentService(newTx(tripOwnedBy(uuid.New()), nil, store.repo()))

	created, err := svc.Create(context.Background(), validComment(tripID, author))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionRemove, created.Intent.Action)

	got, err := svc.UpdateContent(context.Background(), tripID, created.ID, author, "actually, extend the glacier hike")

	require.NoError(t, err)
	assert.Equal(t, "actually, extend the glacier hike", got.Content)
	assert.Equal(t, domain.ActionExtend, got.Intent.Action)
}

func TestCommentService_UpdateContent_authorOnly(t *testing.T) {
	tripID, author := uuid.New(), uuid.New()
	store := newCommentStore()
	svc := service.NewCommentService(newTx(tripOwnedBy(uuid.New()), nil, store.repo()))

	created, err := svc.Create(context.Background(), validComment(tripID, author))
	require.NoError(t, err)

	_, err = svc.UpdateContent(context.Background(), tripID, created.ID, uuid.New(), "new text")

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCommentService_UpdateContent_pendingOnly(t *testing.T) {
	tripID, author := uuid.New(), uuid.New()
	store := newCommentStore()
	svc := service.NewCommentService(newTx(tripOwnedBy(uuid.New()), nil, store.repo()))

	created, err := svc.Create(context.Background(), validComment(tripID, author))
	require.NoError(t, err)

	c := store.byID[created.ID]
	c.Status = domain.StatusAddressed
	store.byID[created.ID] = c

	_, err = svc.UpdateContent(context.Background(), tripID, created.ID, author, "new text")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- Resolve / Delete ------------------------------------------------------

func TestCommentService_Resolve_clearsConflictsSymmetrically(t *testing.T) {
	tripID, author := uuid.New(), uuid.New()
	store := newCommentStore()
	svc := service.NewCommentService(newTx(tripOwnedBy(uuid.New()), nil, store.repo()))

	remove, err := svc.Create(context.Background(), validComment(tripID, author))
	require.NoError(t, err)

	extend := validComment(tripID, author)
	extend.Content = "more time at the glacier hike"
	extended, err := svc.Create(context.Background(), extend)
	require.NoError(t, err)
	require.NotEmpty(t, extended.ConflictsWith)

	got, err := svc.Resolve(context.Background(), tripID, extended.ID, author)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, got.Status)
	assert.Empty(t, got.ConflictsWith)
	// The surviving comment no longer references the resolved one.
	assert.Empty(t, store.byID[remove.ID].ConflictsWith)
}

func TestCommentService_Resolve_ownerMayResolveOthersComment(t *testing.T) {
	tripID, author, owner := uuid.New(), uuid.New(), uuid.New()
	store := newCommentStore()
	svc := service.NewCommentService(newTx(tripOwnedBy(owner), nil, store.repo()))

	created, err := svc.Create(context.Background(), validComment(tripID, author))
	require.NoError(t, err)

	got, err := svc.Resolve(context.Background(), tripID, created.ID, owner)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, got.Status)
}

func TestCommentService_Resolve_strangerForbidden(t *testing.T) {
	tripID, author := uuid.New(), uuid.New()
	store := newCommentStore()
	svc := service.NewCommentService(newTx(tripOwnedBy(uuid.New()), nil, store.repo()))

	created, err := svc.Create(context.Background(), validComment(tripID, author))
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), tripID, created.ID, uuid.New())

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCommentService_Delete_softDeletes(t *testing.T) {
	tripID, author := uuid.New(), uuid.New()
	store := newCommentStore()
	svc := service.NewCommentService(newTx(tripOwnedBy(uuid.New()), nil, store.repo()))

	created, err := svc.Create(context.Background(), validComment(tripID, author))
	require.NoError(t, err)

	err = svc.Delete(context.Background(), tripID, created.ID, author)

	require.NoError(t, err)
	// The row survives with status deleted.
	assert.Equal(t, domain.StatusDeleted, store.byID[created.ID].Status)
}

func TestCommentService_Delete_notPending(t *testing.T) {
	tripID, author := uuid.New(), uuid.New()
	store := newCommentStore()
	svc := service.NewCommentService(newTx(tripOwnedBy(uuid.New()), nil, store.repo()))

	created, err := svc.Create(context.Background(), validComment(tripID, author))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), tripID, created.ID, author))

	// Deleting again fails: the comment already left pending.
	err = svc.Delete(context.Background(), tripID, created.ID, author)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- Conflicts / PreviewClassify -------------------------------------------

func TestCommentService_Conflicts_emptyIsNotNil(t *testing.T) {
	store := newCommentStore()
	svc := service.NewCommentService(newTx(tripOwnedBy(uuid.New()), nil, store.repo()))

	pairs, err := svc.Conflicts(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.NotNil(t, pairs)
	assert.Empty(t, pairs)
}

func TestCommentService_PreviewClassify(t *testing.T) {
	svc := service.NewCommentService(newTx(nil, nil, nil))

	intent, err := svc.PreviewClassify(service.ClassifyInput{Content: "please remove the glacier hike"})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionRemove, intent.Action)

	_, err = svc.PreviewClassify(service.ClassifyInput{Content: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
