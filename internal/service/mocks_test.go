package service_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/pkordes/tripweaver/backend/internal/domain"
	"github.com/pkordes/tripweaver/backend/internal/repo"
)

// fakeTx satisfies repo.Tx by running the callback against a fixed Queries
// value. Nothing is transactional: the mocks themselves record effects, and a
// returned error simply propagates as the rollback would.
type fakeTx struct {
	q repo.Queries
}

func (f *fakeTx) InTx(_ context.Context, fn func(repo.Queries) error) error {
	return fn(f.q)
}

var _ repo.Tx = (*fakeTx)(nil)

// newTx bundles the three repo mocks into a Tx. Pass nil for repos the test
// does not exercise.
func newTx(trips repo.TripRepo, versions repo.VersionRepo, comments repo.CommentRepo) *fakeTx {
	return &fakeTx{q: repo.Queries{Trips: trips, Versions: versions, Comments: comments}}
}

// ---- mock repos ------------------------------------------------------------

// mockTripRepo is a hand-written test double for repo.TripRepo.
type mockTripRepo struct {
	create               func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID              func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	listByOwner          func(ctx context.Context, ownerID uuid.UUID) ([]domain.Trip, error)
	advanceActiveVersion func(ctx context.Context, tripID uuid.UUID, expectedVersion, newVersion, regenerationsDelta int) error
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Trip, error) {
	return m.listByOwner(ctx, ownerID)
}
func (m *mockTripRepo) AdvanceActiveVersion(ctx context.Context, tripID uuid.UUID, expectedVersion, newVersion, regenerationsDelta int) error {
	if m.advanceActiveVersion != nil {
		return m.advanceActiveVersion(ctx, tripID, expectedVersion, newVersion, regenerationsDelta)
	}
	return nil
}

// compile-time check: mockTripRepo must satisfy repo.TripRepo.
var _ repo.TripRepo = (*mockTripRepo)(nil)

// mockVersionRepo is a hand-written test double for repo.VersionRepo.
type mockVersionRepo struct {
	create      func(ctx context.Context, v domain.ItineraryVersion) (domain.ItineraryVersion, error)
	getByNumber func(ctx context.Context, tripID uuid.UUID, version int) (domain.ItineraryVersion, error)
	listByTrip  func(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryVersion, error)
}

func (m *mockVersionRepo) Create(ctx context.Context, v domain.ItineraryVersion) (domain.ItineraryVersion, error) {
	return m.create(ctx, v)
}
func (m *mockVersionRepo) GetByNumber(ctx context.Context, tripID uuid.UUID, version int) (domain.ItineraryVersion, error) {
	return m.getByNumber(ctx, tripID, version)
}
func (m *mockVersionRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryVersion, error) {
	return m.listByTrip(ctx, tripID)
}

var _ repo.VersionRepo = (*mockVersionRepo)(nil)

// mockCommentRepo is a hand-written test double for repo.CommentRepo.
// listPending and setConflicts default to no-ops because most flows trigger a
// conflict rescan the test under construction does not care about.
type mockCommentRepo struct {
	create        func(ctx context.Context, c domain.Comment) (domain.Comment, error)
	getByID       func(ctx context.Context, tripID, commentID uuid.UUID) (domain.Comment, error)
	listByTrip    func(ctx context.Context, tripID uuid.UUID, status *domain.CommentStatus, p domain.PaginationParams) ([]domain.Comment, int64, error)
	listPending   func(ctx context.Context, tripID uuid.UUID) ([]domain.Comment, error)
	update        func(ctx context.Context, c domain.Comment) (domain.Comment, error)
	setConflicts  func(ctx context.Context, commentID uuid.UUID, conflicts []uuid.UUID) error
	markAddressed func(ctx context.Context, tripID uuid.UUID, commentIDs []uuid.UUID, version int) error
}

func (m *mockCommentRepo) Create(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	return m.create(ctx, c)
}
func (m *mockCommentRepo) GetByID(ctx context.Context, tripID, commentID uuid.UUID) (domain.Comment, error) {
	return m.getByID(ctx, tripID, commentID)
}
func (m *mockCommentRepo) ListByTrip(ctx context.Context, tripID uuid.UUID, status *domain.CommentStatus, p domain.PaginationParams) ([]domain.Comment, int64, error) {
	return m.listByTrip(ctx, tripID, status, p)
}
func (m *mockCommentRepo) ListPending(ctx context.Context, tripID uuid.UUID) ([]domain.Comment, error) {
	if m.listPending != nil {
		return m.listPending(ctx, tripID)
	}
	return nil, nil
}
func (m *mockCommentRepo) Update(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	return m.update(ctx, c)
}
func (m *mockCommentRepo) SetConflicts(ctx context.Context, commentID uuid.UUID, conflicts []uuid.UUID) error {
	if m.setConflicts != nil {
		return m.setConflicts(ctx, commentID, conflicts)
	}
	return nil
}
func (m *mockCommentRepo) MarkAddressed(ctx context.Context, tripID uuid.UUID, commentIDs []uuid.UUID, version int) error {
	if m.markAddressed != nil {
		return m.markAddressed(ctx, tripID, commentIDs, version)
	}
	return nil
}

var _ repo.CommentRepo = (*mockCommentRepo)(nil)

// mockAIClient is a hand-written test double for service.AIClient.
type mockAIClient struct {
	generate func(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}

func (m *mockAIClient) GenerateItinerary(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	return m.generate(ctx, req)
}

// ---- builders --------------------------------------------------------------

// dayOf builds a one-item day spanning the given clock strings.
func dayOf(n int, start, end string) domain.Day {
	return domain.Day{
		DayNumber: n,
		Timeline: []domain.TimelineItem{
			{Start: start, End: end, Title: "stop"},
		},
	}
}

// itineraryOf wraps days into a plan document.
func itineraryOf(days ...domain.Day) domain.Itinerary {
	return domain.Itinerary{Days: days}
}
