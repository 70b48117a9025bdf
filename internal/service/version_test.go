package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripweaver/backend/internal/domain"
	"github.com/pkordes/tripweaver/backend/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// versionFixture wires a trip with an active version and a set of stored
// versions into mocks, recording creates and pointer advances.
type versionFixture struct {
	tripID   uuid.UUID
	ownerID  uuid.UUID
	trip     domain.Trip
	versions map[int]domain.ItineraryVersion

	created  []domain.ItineraryVersion
	advanced []int // new version numbers passed to AdvanceActiveVersion
}

func newVersionFixture(activeVersion int) *versionFixture {
	f := &versionFixture{
		tripID:   uuid.New(),
		ownerID:  uuid.New(),
		versions: make(map[int]domain.ItineraryVersion),
	}
	f.trip = domain.Trip{
		ID:            f.tripID,
		OwnerID:       f.ownerID,
		ActiveVersion: activeVersion,
	}
	return f
}

func (f *versionFixture) addVersion(n int, days ...domain.Day) {
	f.versions[n] = domain.ItineraryVersion{
		TripID:  f.tripID,
		Version: n,
		Data:    itineraryOf(days...),
	}
}

func (f *versionFixture) service() *service.VersionService {
	trips := &mockTripRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
			if id != f.tripID {
				return domain.Trip{}, domain.ErrNotFound
			}
			return f.trip, nil
		},
		advanceActiveVersion: func(_ context.Context, _ uuid.UUID, expected, newVersion, _ int) error {
			if expected != f.trip.ActiveVersion {
				return &domain.VersionRaceError{TripID: f.tripID, ExpectedVersion: expected}
			}
			f.advanced = append(f.advanced, newVersion)
			return nil
		},
	}
	versions := &mockVersionRepo{
		getByNumber: func(_ context.Context, _ uuid.UUID, n int) (domain.ItineraryVersion, error) {
			v, ok := f.versions[n]
			if !ok {
				return domain.ItineraryVersion{}, domain.ErrNotFound
			}
			return v, nil
		},
		create: func(_ context.Context, v domain.ItineraryVersion) (domain.ItineraryVersion, error) {
			f.created = append(f.created, v)
			return v, nil
		},
		listByTrip: func(_ context.Context, _ uuid.UUID) ([]domain.ItineraryVersion, error) {
			return nil, nil
		},
	}
	return service.NewVersionService(newTx(trips, versions, nil), discardLogger())
}

// ---- CherryPick ------------------------------------------------------------

func TestVersionService_CherryPick_OK(t *testing.T) {
	f := newVersionFixture(4)
	f.addVersion(2, dayOf(1, "09:00", "18:00"), dayOf(2, "09:00", "18:00"), dayOf(3, "09:00", "18:00"))
	f.addVersion(3, dayOf(1, "08:00", "17:00"), dayOf(2, "08:00", "17:00"), dayOf(3, "08:00", "17:00"))
	f.addVersion(4,
		domain.Day{DayNumber: 1, Title: "active day 1", Timeline: []domain.TimelineItem{{Start: "10:00", End: "16:00", Title: "stop"}}},
		domain.Day{DayNumber: 2, Title: "active day 2", Timeline: []domain.TimelineItem{{Start: "10:00", End: "16:00", Title: "stop"}}},
		domain.Day{DayNumber: 3, Title: "active day 3", Timeline: []domain.TimelineItem{{Start: "10:00", End: "16:00", Title: "stop"}}},
	)

	got, err := f.service().CherryPick(context.Background(), f.tripID, map[int]int{1: 2, 3: 3}, f.ownerID)

	require.NoError(t, err)
	assert.Equal(t, 5, got.Version)
	assert.Equal(t, domain.SourceCherryPick, got.SourceType)
	require.NotNil(t, got.ParentVersion)
	assert.Equal(t, 4, *got.ParentVersion)
	// Only explicitly selected versions count as sources, sorted ascending.
	assert.Equal(t, []int{2, 3}, got.SourceVersions)
	assert.Equal(t, "Day 1 from v2; Day 3 from v3", got.ModificationSummary)

	// Day 1 from v2, day 2 kept from the active version, day 3 from v3.
	require.Len(t, got.Data.Days, 3)
	assert.Equal(t, "09:00", got.Data.Days[0].Timeline[0].Start)
	assert.Equal(t, "active day 2", got.Data.Days[1].Title)
	assert.Equal(t, "08:00", got.Data.Days[2].Timeline[0].Start)

	assert.Equal(t, []int{5}, f.advanced)
}

func TestVersionService_CherryPick_missingSourceVersion(t *testing.T) {
	f := newVersionFixture(2)
	f.addVersion(2, dayOf(1, "09:00", "18:00"))

	_, err := f.service().CherryPick(context.Background(), f.tripID, map[int]int{1: 9}, f.ownerID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	// Nothing was written.
	assert.Empty(t, f.created)
	assert.Empty(t, f.advanced)
}

func TestVersionService_CherryPick_sourceLacksDay(t *testing.T) {
	f := newVersionFixture(2)
	f.addVersion(1, dayOf(1, "09:00", "18:00"))
	f.addVersion(2, dayOf(1, "09:00", "18:00"), dayOf(2, "09:00", "18:00"))

	_, err := f.service().CherryPick(context.Background(), f.tripID, map[int]int{2: 1}, f.ownerID)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, f.created)
}

func TestVersionService_CherryPick_dayNotInActiveVersion(t *testing.T) {
	f := newVersionFixture(1)
	f.addVersion(1, dayOf(1, "09:00", "18:00"))

	_, err := f.service().CherryPick(context.Background(), f.tripID, map[int]int{7: 1}, f.ownerID)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestVersionService_CherryPick_emptySelections(t *testing.T) {
	f := newVersionFixture(1)

	_, err := f.service().CherryPick(context.Background(), f.tripID, nil, f.ownerID)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestVersionService_CherryPick_ownerOnly(t *testing.T) {
	f := newVersionFixture(1)
	f.addVersion(1, dayOf(1, "09:00", "18:00"))

	_, err := f.service().CherryPick(context.Background(), f.tripID, map[int]int{1: 1}, uuid.New())

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestVersionService_CherryPick_noItineraryYet(t *testing.T) {
	f := newVersionFixture(0)

	_, err := f.service().CherryPick(context.Background(), f.tripID, map[int]int{1: 1}, f.ownerID)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- Restore ---------------------------------------------------------------

func TestVersionService_Restore_OK(t *testing.T) {
	f := newVersionFixture(3)
	f.addVersion(1, dayOf(1, "09:00", "18:00"), dayOf(2, "09:00", "18:00"))
	f.addVersion(3, dayOf(1, "10:00", "16:00"))

	got, err := f.service().Restore(context.Background(), f.tripID, 1, f.ownerID)

	require.NoError(t, err)
	assert.Equal(t, 4, got.Version)
	assert.Equal(t, domain.SourceRestore, got.SourceType)
	require.NotNil(t, got.ParentVersion)
	assert.Equal(t, 3, *got.ParentVersion)
	assert.Equal(t, []int{1}, got.SourceVersions)
	assert.Equal(t, "Restored from v1", got.ModificationSummary)
	// The restored document carries v1's days wholesale.
	require.Len(t, got.Data.Days, 2)
	assert.Equal(t, "09:00", got.Data.Days[0].Timeline[0].Start)
}

func TestVersionService_Restore_missingSource(t *testing.T) {
	f := newVersionFixture(2)
	f.addVersion(2, dayOf(1, "09:00", "18:00"))

	_, err := f.service().Restore(context.Background(), f.tripID, 9, f.ownerID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.created)
}

// ---- ContinuityWarnings ----------------------------------------------------

func TestContinuityWarnings(t *testing.T) {
	// Late end followed by early start is flagged.
	warnings := service.ContinuityWarnings([]domain.Day{
		dayOf(1, "09:00", "23:30"),
		dayOf(2, "06:00", "18:00"),
	})
	require.Len(t, warnings, 1)
	assert.Equal(t, 1, warnings[0].DayNumber)
	assert.Equal(t, "23:30", warnings[0].Ends)
	assert.Equal(t, "06:00", warnings[0].NextStarts)

	// 22:00 exactly is not late; the threshold is strictly after.
	warnings = service.ContinuityWarnings([]domain.Day{
		dayOf(1, "09:00", "22:00"),
		dayOf(2, "06:00", "18:00"),
	})
	assert.Empty(t, warnings)

	// Late end with a reasonable next start is fine.
	warnings = service.ContinuityWarnings([]domain.Day{
		dayOf(1, "09:00", "23:30"),
		dayOf(2, "09:00", "18:00"),
	})
	assert.Empty(t, warnings)

	// Unparseable clock strings are skipped, not fatal.
	warnings = service.ContinuityWarnings([]domain.Day{
		dayOf(1, "09:00", "late"),
		dayOf(2, "06:00", "18:00"),
	})
	assert.Empty(t, warnings)

	// Empty timelines are skipped.
	warnings = service.ContinuityWarnings([]domain.Day{
		{DayNumber: 1},
		dayOf(2, "06:00", "18:00"),
	})
	assert.Empty(t, warnings)
}
