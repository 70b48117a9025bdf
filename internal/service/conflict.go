package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/tripweaver/backend/internal/domain"
	"github.com/pkordes/tripweaver/backend/internal/repo"
)

// maxConflictScan caps the pending set size per scan. The pairwise scan is
// quadratic, which is fine at human-feedback volume, but a runaway client
// should hit a validation error before an O(n²) wall.
const maxConflictScan = 200

// overcrowdingBudget is the summed time-impact ceiling (minutes) two add
// comments on the same day may request before they conflict.
const overcrowdingBudget = 180

// defaultAddImpact stands in for a nil time-impact estimate when summing.
const defaultAddImpact = 60

// DetectConflicts runs the pairwise scan over pending, intent-tagged
// comments. It returns the detected pairs and, for every scanned comment,
// its full conflicts_with set: the union of the existing set and the newly
// detected edges, so repeated scans are idempotent.
//
// The function is pure; persisting the returned sets is the caller's job.
func DetectConflicts(pending []domain.Comment) ([]domain.ConflictPair, map[uuid.UUID][]uuid.UUID, error) {
	if len(pending) > maxConflictScan {
		return nil, nil, fmt.Errorf("%w: too many pending comments to scan (%d > %d)",
			domain.ErrValidation, len(pending), maxConflictScan)
	}

	sets := make(map[uuid.UUID]map[uuid.UUID]struct{}, len(pending))
	for _, c := range pending {
		set := make(map[uuid.UUID]struct{}, len(c.ConflictsWith))
		for _, id := range c.ConflictsWith {
			set[id] = struct{}{}
		}
		sets[c.ID] = set
	}

	var pairs []domain.ConflictPair
	for i := 0; i < len(pending); i++ {
		for j := i + 1; j < len(pending); j++ {
			a, b := pending[i], pending[j]
			reason, ok := conflictReason(a, b)
			if !ok {
				continue
			}
			pairs = append(pairs, domain.ConflictPair{CommentA: a.ID, CommentB: b.ID, Reason: reason})
			// Symmetric set-union: if A lists B, B lists A.
			sets[a.ID][b.ID] = struct{}{}
			sets[b.ID][a.ID] = struct{}{}
		}
	}

	result := make(map[uuid.UUID][]uuid.UUID, len(pending))
	for _, c := range pending {
		ids := make([]uuid.UUID, 0, len(sets[c.ID]))
		// Preserve scan order for determinism.
		for _, other := range pending {
			if _, ok := sets[c.ID][other.ID]; ok {
				ids = append(ids, other.ID)
			}
		}
		result[c.ID] = ids
	}

	return pairs, result, nil
}

// conflictReason applies the pair rules. Both comments must carry an intent;
// at most one reason is reported per pair, first rule wins.
func conflictReason(a, b domain.Comment) (string, bool) {
	if a.Intent == nil || b.Intent == nil {
		return "", false
	}
	if a.TargetID == "" || a.TargetID != b.TargetID {
		return "", false
	}

	if actionsAre(a, b, domain.ActionExtend, domain.ActionShorten) {
		return "duration disagreement", true
	}
	if actionsAre(a, b, domain.ActionRemove, domain.ActionExtend) {
		return "remove vs extend", true
	}
	if actionsAre(a, b, domain.ActionRemove, domain.ActionAdd) {
		return "remove vs add", true
	}
	if a.Intent.Action == domain.ActionSwap && b.Intent.Action == domain.ActionSwap {
		return "competing swaps", true
	}
	if a.Intent.Action == domain.ActionMove && b.Intent.Action == domain.ActionMove {
		return "competing moves", true
	}

	// Day-level rules: both comments target the same day.
	if a.TargetType == domain.TargetDay && b.TargetType == domain.TargetDay {
		if addVersusLessDriving(a, b) || addVersusLessDriving(b, a) {
			return "more stops vs less driving", true
		}
		if a.Intent.Action == domain.ActionAdd && b.Intent.Action == domain.ActionAdd &&
			addImpact(a)+addImpact(b) > overcrowdingBudget {
			return "day overcrowding", true
		}
	}

	return "", false
}

// actionsAre reports whether the pair carries the two actions in either order.
func actionsAre(a, b domain.Comment, x, y domain.CommentAction) bool {
	return (a.Intent.Action == x && b.Intent.Action == y) ||
		(a.Intent.Action == y && b.Intent.Action == x)
}

// addVersusLessDriving reports the directional half of the rule: one comment
// wants to add a stop while the other asks for less driving on the same day.
func addVersusLessDriving(add, other domain.Comment) bool {
	return add.Intent.Action == domain.ActionAdd &&
		strings.Contains(strings.ToLower(other.Intent.Details), "less driving")
}

// addImpact returns an add comment's time estimate, defaulting when unset.
func addImpact(c domain.Comment) int {
	if c.Intent.EstimatedTimeImpactMinutes != nil {
		return *c.Intent.EstimatedTimeImpactMinutes
	}
	return defaultAddImpact
}

// rescanConflicts re-runs detection over a trip's pending set inside the
// caller's transaction and persists every comment whose conflicts_with
// changed. It returns the detected pairs.
func rescanConflicts(ctx context.Context, q repo.Queries, tripID uuid.UUID) ([]domain.ConflictPair, error) {
	pending, err := q.Comments.ListPending(ctx, tripID)
	if err != nil {
		return nil, err
	}

	// Only intent-tagged comments participate in detection.
	tagged := pending[:0:0]
	for _, c := range pending {
		if c.Intent != nil {
			tagged = append(tagged, c)
		}
	}

	pairs, sets, err := DetectConflicts(tagged)
	if err != nil {
		return nil, err
	}

	for _, c := range tagged {
		if !sameIDSet(c.ConflictsWith, sets[c.ID]) {
			if err := q.Comments.SetConflicts(ctx, c.ID, sets[c.ID]); err != nil {
				return nil, err
			}
		}
	}

	return pairs, nil
}

// clearConflicts empties a comment's conflict set and symmetrically strips
// its id from every counterpart, leaving no dangling references. Call it
// inside the same transaction as the status change that leaves pending.
func clearConflicts(ctx context.Context, q repo.Queries, c domain.Comment) error {
	for _, otherID := range c.ConflictsWith {
		other, err := q.Comments.GetByID(ctx, c.TripID, otherID)
		if err != nil {
			return err
		}
		if err := q.Comments.SetConflicts(ctx, other.ID, removeID(other.ConflictsWith, c.ID)); err != nil {
			return err
		}
	}
	return q.Comments.SetConflicts(ctx, c.ID, nil)
}

func removeID(ids []uuid.UUID, drop uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

func sameIDSet(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uuid.UUID]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
