package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tripweaver/backend/internal/domain"
	"github.com/pkordes/tripweaver/backend/internal/repo"
)

// VersionService composes new itinerary versions from existing ones:
// cherry-picking individual days across versions and restoring a whole
// prior version. Both paths share the append-and-advance contract: insert
// an immutable version row, then conditionally move the trip pointer.
type VersionService struct {
	tx  repo.Tx
	log *slog.Logger
}

// NewVersionService constructs a VersionService.
// The logger receives advisory continuity warnings.
func NewVersionService(tx repo.Tx, log *slog.Logger) *VersionService {
	return &VersionService{tx: tx, log: log}
}

// CherryPick builds a new version from per-day selections. For every day in
// the current active version, the explicitly selected version's day is used
// if given, otherwise the active version's day is kept. The whole operation
// fails with no write if any explicit (day, version) selection cannot be
// resolved.
//
// The version numbers actually selected become source_versions; fallback
// days do not count.
func (s *VersionService) CherryPick(ctx context.Context, tripID uuid.UUID, selections map[int]int, actorID uuid.UUID) (domain.ItineraryVersion, error) {
	if len(selections) == 0 {
		return domain.ItineraryVersion{}, fmt.Errorf("service.VersionService.CherryPick: %w: at least one day selection is required", domain.ErrValidation)
	}

	var created domain.ItineraryVersion
	err := s.tx.InTx(ctx, func(q repo.Queries) error {
		trip, active, err := loadActive(ctx, q, tripID, actorID)
		if err != nil {
			return err
		}

		// Every selection must name a day the active version actually has.
		for dayNum := range selections {
			if _, ok := active.Data.Day(dayNum); !ok {
				return fmt.Errorf("%w: day %d is not part of the current itinerary", domain.ErrValidation, dayNum)
			}
		}

		days, sourceVersions, err := resolveDays(ctx, q, trip, active, selections)
		if err != nil {
			return err
		}

		s.logContinuityWarnings(ctx, tripID, days)

		doc := active.Data
		doc.Days = days
		doc.GeneratedAt = time.Now().UTC()

		parent := trip.ActiveVersion
		created, err = appendAndAdvance(ctx, q, trip, domain.ItineraryVersion{
			TripID:              tripID,
			Version:             trip.ActiveVersion + 1,
			Data:                doc,
			SourceType:          domain.SourceCherryPick,
			ParentVersion:       &parent,
			SourceVersions:      sourceVersions,
			ModificationSummary: cherryPickSummary(selections),
			CreatedBy:           actorID,
		}, 0)
		return err
	})
	if err != nil {
		return domain.ItineraryVersion{}, fmt.Errorf("service.VersionService.CherryPick: %w", err)
	}
	return created, nil
}

// Restore appends a new version whose every day comes from one prior
// version. It reuses the cherry-pick append-and-advance contract with a
// single-source selection.
func (s *VersionService) Restore(ctx context.Context, tripID uuid.UUID, sourceVersion int, actorID uuid.UUID) (domain.ItineraryVersion, error) {
	var created domain.ItineraryVersion
	err := s.tx.InTx(ctx, func(q repo.Queries) error {
		trip, _, err := loadActive(ctx, q, tripID, actorID)
		if err != nil {
			return err
		}

		source, err := q.Versions.GetByNumber(ctx, tripID, sourceVersion)
		if err != nil {
			return err
		}

		s.logContinuityWarnings(ctx, tripID, source.Data.Days)

		doc := source.Data
		doc.GeneratedAt = time.Now().UTC()

		parent := trip.ActiveVersion
		created, err = appendAndAdvance(ctx, q, trip, domain.ItineraryVersion{
			TripID:              tripID,
			Version:             trip.ActiveVersion + 1,
			Data:                doc,
			SourceType:          domain.SourceRestore,
			ParentVersion:       &parent,
			SourceVersions:      []int{sourceVersion},
			ModificationSummary: fmt.Sprintf("Restored from v%d", sourceVersion),
			CreatedBy:           actorID,
		}, 0)
		return err
	})
	if err != nil {
		return domain.ItineraryVersion{}, fmt.Errorf("service.VersionService.Restore: %w", err)
	}
	return created, nil
}

// List returns a trip's full version lineage, oldest first.
// Always returns a non-nil slice so callers can safely range over it.
func (s *VersionService) List(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryVersion, error) {
	var versions []domain.ItineraryVersion
	err := s.tx.InTx(ctx, func(q repo.Queries) error {
		if _, err := q.Trips.GetByID(ctx, tripID); err != nil {
			return err
		}
		var err error
		versions, err = q.Versions.ListByTrip(ctx, tripID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service.VersionService.List: %w", err)
	}
	if versions == nil {
		versions = []domain.ItineraryVersion{}
	}
	return versions, nil
}

// Get returns one version of a trip.
func (s *VersionService) Get(ctx context.Context, tripID uuid.UUID, version int) (domain.ItineraryVersion, error) {
	var v domain.ItineraryVersion
	err := s.tx.InTx(ctx, func(q repo.Queries) error {
		var err error
		v, err = q.Versions.GetByNumber(ctx, tripID, version)
		return err
	})
	if err != nil {
		return domain.ItineraryVersion{}, fmt.Errorf("service.VersionService.Get: %w", err)
	}
	return v, nil
}

// loadActive fetches the trip and its active version, enforcing ownership
// and the version-exists precondition shared by cherry-pick and restore.
func loadActive(ctx context.Context, q repo.Queries, tripID, actorID uuid.UUID) (domain.Trip, domain.ItineraryVersion, error) {
	trip, err := q.Trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, domain.ItineraryVersion{}, err
	}
	if trip.OwnerID != actorID {
		return domain.Trip{}, domain.ItineraryVersion{}, fmt.Errorf("%w: only the trip owner may create versions", domain.ErrForbidden)
	}
	if trip.ActiveVersion == 0 {
		return domain.Trip{}, domain.ItineraryVersion{}, fmt.Errorf("%w: trip has no itinerary yet", domain.ErrValidation)
	}
	active, err := q.Versions.GetByNumber(ctx, tripID, trip.ActiveVersion)
	if err != nil {
		return domain.Trip{}, domain.ItineraryVersion{}, err
	}
	return trip, active, nil
}

// resolveDays walks the active version's day list and swaps in explicitly
// selected days. Source versions are fetched once each; a selection naming a
// missing version or a version lacking that day fails the whole resolution.
func resolveDays(ctx context.Context, q repo.Queries, trip domain.Trip, active domain.ItineraryVersion, selections map[int]int) ([]domain.Day, []int, error) {
	fetched := map[int]domain.ItineraryVersion{active.Version: active}
	days := make([]domain.Day, 0, len(active.Data.Days))
	usedVersions := make(map[int]struct{})

	for _, current := range active.Data.Days {
		selVersion, explicit := selections[current.DayNumber]
		if !explicit {
			days = append(days, current)
			continue
		}

		src, ok := fetched[selVersion]
		if !ok {
			var err error
			src, err = q.Versions.GetByNumber(ctx, trip.ID, selVersion)
			if err != nil {
				return nil, nil, fmt.Errorf("version %d: %w", selVersion, err)
			}
			fetched[selVersion] = src
		}

		day, ok := src.Data.Day(current.DayNumber)
		if !ok {
			return nil, nil, fmt.Errorf("%w: version %d has no day %d", domain.ErrValidation, selVersion, current.DayNumber)
		}
		days = append(days, day)
		usedVersions[selVersion] = struct{}{}
	}

	sourceVersions := make([]int, 0, len(usedVersions))
	for v := range usedVersions {
		sourceVersions = append(sourceVersions, v)
	}
	sort.Ints(sourceVersions)

	return days, sourceVersions, nil
}

// appendAndAdvance writes the version row and conditionally moves the trip
// pointer in the caller's transaction. The conditional update means two
// concurrent composers cannot both commit version N+1.
func appendAndAdvance(ctx context.Context, q repo.Queries, trip domain.Trip, v domain.ItineraryVersion, regenerationsDelta int) (domain.ItineraryVersion, error) {
	created, err := q.Versions.Create(ctx, v)
	if err != nil {
		return domain.ItineraryVersion{}, err
	}
	if err := q.Trips.AdvanceActiveVersion(ctx, trip.ID, trip.ActiveVersion, v.Version, regenerationsDelta); err != nil {
		return domain.ItineraryVersion{}, err
	}
	return created, nil
}

// cherryPickSummary renders "Day X from vY" per explicit selection,
// ordered by day number.
func cherryPickSummary(selections map[int]int) string {
	dayNums := make([]int, 0, len(selections))
	for d := range selections {
		dayNums = append(dayNums, d)
	}
	sort.Ints(dayNums)

	summary := ""
	for i, d := range dayNums {
		if i > 0 {
			summary += "; "
		}
		summary += fmt.Sprintf("Day %d from v%d", d, selections[d])
	}
	return summary
}

// logContinuityWarnings runs the advisory day-boundary check: a day ending
// after 22:00 followed by a day starting before 07:00 is suspicious but
// never blocks the merge.
func (s *VersionService) logContinuityWarnings(ctx context.Context, tripID uuid.UUID, days []domain.Day) {
	for _, w := range ContinuityWarnings(days) {
		s.log.WarnContext(ctx, "itinerary continuity warning",
			"trip_id", tripID,
			"day", w.DayNumber,
			"ends", w.Ends,
			"next_day_starts", w.NextStarts,
		)
	}
}

// ContinuityWarning flags a suspicious boundary between two adjacent days.
type ContinuityWarning struct {
	// DayNumber is the earlier day of the pair.
	DayNumber  int
	Ends       string
	NextStarts string
}

// ContinuityWarnings checks each adjacent day pair: if day N's last timeline
// item ends after 22:00 and day N+1's first item starts before 07:00, the
// pair is flagged. Unparseable or empty timelines are skipped; the check is
// advisory and must never fail a merge.
func ContinuityWarnings(days []domain.Day) []ContinuityWarning {
	var warnings []ContinuityWarning
	for i := 0; i+1 < len(days); i++ {
		cur, next := days[i], days[i+1]
		if len(cur.Timeline) == 0 || len(next.Timeline) == 0 {
			continue
		}
		ends, err1 := time.Parse("15:04", cur.Timeline[len(cur.Timeline)-1].End)
		starts, err2 := time.Parse("15:04", next.Timeline[0].Start)
		if err1 != nil || err2 != nil {
			continue
		}
		lateEnd := ends.Hour() > 22 || (ends.Hour() == 22 && ends.Minute() > 0)
		earlyStart := starts.Hour() < 7
		if lateEnd && earlyStart {
			warnings = append(warnings, ContinuityWarning{
				DayNumber:  cur.DayNumber,
				Ends:       cur.Timeline[len(cur.Timeline)-1].End,
				NextStarts: next.Timeline[0].Start,
			})
		}
	}
	return warnings
}
