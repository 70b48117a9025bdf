package service

import (
	"context"
	"fmt"
	"math"

	"github.com/pkordes/tripweaver/backend/internal/domain"
	"github.com/pkordes/tripweaver/backend/internal/repo"
)

const (
	// candidateCap bounds how many pool entries are scored per request.
	candidateCap = 20
	// matchThreshold is the minimum best score worth reusing; anything
	// below it forces fresh generation.
	matchThreshold = 50
	// exactThreshold is the score at or above which a task-free candidate
	// counts as an exact match.
	exactThreshold = 90
)

// MatcherService scores pooled prior itineraries against a new trip request
// so redundant generation can be skipped.
type MatcherService struct {
	pool repo.CachePool
}

// NewMatcherService constructs a MatcherService over the given pool.
func NewMatcherService(pool repo.CachePool) *MatcherService {
	return &MatcherService{pool: pool}
}

// Match returns the best-scoring pool candidate for the trip, or nil when no
// candidate reaches the reuse threshold. The candidate filter allows pool
// itineraries up to 7 days longer or 3 days shorter than the trip;
// extension is easier than compression, so the window is asymmetric.
func (s *MatcherService) Match(ctx context.Context, trip domain.Trip) (*domain.CacheMatch, error) {
	entries, err := s.pool.Candidates(ctx, trip.DestinationSlug, trip.Season(),
		trip.DurationDays-7, trip.DurationDays+3, candidateCap)
	if err != nil {
		return nil, fmt.Errorf("service.MatcherService.Match: %w", err)
	}

	var best *domain.CacheMatch
	for _, entry := range entries {
		score, tasks := ScoreCandidate(trip, entry)
		// Strictly-greater keeps the earlier (higher quality) entry on score
		// ties, so selection is deterministic on pool order.
		if best == nil || score > best.Score {
			best = &domain.CacheMatch{Entry: entry, Score: score, Tasks: tasks}
		}
	}

	if best == nil || best.Score < matchThreshold {
		return nil, nil
	}
	best.MatchType = resolveMatchType(best)
	return best, nil
}

// ScoreCandidate scores one pool entry against a trip request out of 100:
// pacing 30, anchors 40 (Jaccard), duration 20, traveler type 10. Alongside
// the score it emits the generation tasks that would close the gap.
func ScoreCandidate(trip domain.Trip, entry domain.CacheEntry) (int, []domain.GenerationTask) {
	score := 0
	var tasks []domain.GenerationTask

	// Pacing: exact, or one-directional adjacency with an adjustment task.
	// Only speeding an itinerary up (relaxed→balanced, balanced→packed)
	// earns the partial credit; the reverse direction gets nothing.
	switch {
	case entry.Pacing == trip.Pacing:
		score += 30
	case entry.Pacing == domain.PacingRelaxed && trip.Pacing == domain.PacingBalanced,
		entry.Pacing == domain.PacingBalanced && trip.Pacing == domain.PacingPacked:
		score += 15
		tasks = append(tasks, domain.GenerationTask{Type: domain.TaskAdjustPacing, TargetPacing: trip.Pacing})
	}

	// Anchors: Jaccard overlap scaled to 40 points, plus a task listing the
	// trip anchors the candidate lacks.
	score += int(math.Round(Jaccard(entry.Anchors, trip.Anchors) * 40))
	if missing := missingAnchors(trip.Anchors, entry.Anchors); len(missing) > 0 {
		tasks = append(tasks, domain.GenerationTask{Type: domain.TaskAddAnchor, Anchors: missing})
	}

	// Duration: full credit for exact, stepped partial credit nearby. A
	// shorter candidate also emits an extend task; trimming a longer one is
	// not modeled, so no task in that direction.
	switch diff := absInt(entry.DurationDays - trip.DurationDays); {
	case diff == 0:
		score += 20
	case diff <= 2:
		score += 15
	case diff <= 5:
		score += 10
	}
	if entry.DurationDays < trip.DurationDays {
		tasks = append(tasks, domain.GenerationTask{Type: domain.TaskExtendDays, AddDays: trip.DurationDays - entry.DurationDays})
	}

	if entry.TravelerType == trip.TravelerType {
		score += 10
	}

	return score, tasks
}

// resolveMatchType classifies the winning candidate: exact needs a high
// score and a clean task list; otherwise the most disruptive task wins the
// label (extend over anchor_diff over partial).
func resolveMatchType(m *domain.CacheMatch) domain.MatchType {
	if m.Score >= exactThreshold && len(m.Tasks) == 0 {
		return domain.MatchExact
	}
	var hasAnchorDiff bool
	for _, t := range m.Tasks {
		switch t.Type {
		case domain.TaskExtendDays:
			return domain.MatchExtend
		case domain.TaskAddAnchor:
			hasAnchorDiff = true
		}
	}
	if hasAnchorDiff {
		return domain.MatchAnchorDiff
	}
	return domain.MatchPartial
}

// Jaccard returns |a ∩ b| / |a ∪ b| over the two anchor sets, treating both
// empty as a perfect 1. It is symmetric and bounded in [0, 1].
func Jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}

	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[s] = struct{}{}
	}

	intersection := 0
	union := len(setA)
	for s := range setB {
		if _, ok := setA[s]; ok {
			intersection++
		} else {
			union++
		}
	}

	return float64(intersection) / float64(union)
}

// missingAnchors returns the anchors wanted by the trip that the candidate
// does not cover, in trip order.
func missingAnchors(want, have []string) []string {
	haveSet := make(map[string]struct{}, len(have))
	for _, a := range have {
		haveSet[a] = struct{}{}
	}
	var missing []string
	for _, a := range want {
		if _, ok := haveSet[a]; !ok {
			missing = append(missing, a)
		}
	}
	return missing
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
