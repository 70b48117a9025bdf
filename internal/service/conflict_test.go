package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripweaver/backend/internal/domain"
	"github.com/pkordes/tripweaver/backend/internal/service"
)

// pendingComment builds an intent-tagged pending comment for conflict tests.
func pendingComment(action domain.CommentAction, targetType domain.TargetType, targetID, details string) domain.Comment {
	return domain.Comment{
		ID:         uuid.New(),
		TargetType: targetType,
		TargetID:   targetID,
		Status:     domain.StatusPending,
		Intent: &domain.CommentIntent{
			Action:  action,
			Details: details,
		},
	}
}

func TestDetectConflicts_extendVsShorten(t *testing.T) {
	a := pendingComment(domain.ActionExtend, domain.TargetSpot, "spot-1", "more time here")
	b := pendingComment(domain.ActionShorten, domain.TargetSpot, "spot-1", "too long")

	pairs, sets, err := service.DetectConflicts([]domain.Comment{a, b})

	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, a.ID, pairs[0].CommentA)
	assert.Equal(t, b.ID, pairs[0].CommentB)
	assert.Equal(t, "duration disagreement", pairs[0].Reason)

	// Both sides list each other.
	assert.Equal(t, []uuid.UUID{b.ID}, sets[a.ID])
	assert.Equal(t, []uuid.UUID{a.ID}, sets[b.ID])
}

func TestDetectConflicts_differentTargetsNoConflict(t *testing.T) {
	a := pendingComment(domain.ActionExtend, domain.TargetSpot, "spot-1", "more time")
	b := pendingComment(domain.ActionShorten, domain.TargetSpot, "spot-2", "too long")

	pairs, sets, err := service.DetectConflicts([]domain.Comment{a, b})

	require.NoError(t, err)
	assert.Empty(t, pairs)
	assert.Empty(t, sets[a.ID])
	assert.Empty(t, sets[b.ID])
}

func TestDetectConflicts_emptyTargetNeverConflicts(t *testing.T) {
	// Trip-wide comments have no target id and are exempt from pair rules.
	a := pendingComment(domain.ActionExtend, domain.TargetTrip, "", "more time everywhere")
	b := pendingComment(domain.ActionShorten, domain.TargetTrip, "", "trip too long")

	pairs, _, err := service.DetectConflicts([]domain.Comment{a, b})

	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestDetectConflicts_pairRules(t *testing.T) {
	tests := []struct {
		name    string
		actionA domain.CommentAction
		actionB domain.CommentAction
		reason  string
	}{
		{"remove vs extend", domain.ActionRemove, domain.ActionExtend, "remove vs extend"},
		{"remove vs add", domain.ActionRemove, domain.ActionAdd, "remove vs add"},
		{"competing swaps", domain.ActionSwap, domain.ActionSwap, "competing swaps"},
		{"competing moves", domain.ActionMove, domain.ActionMove, "competing moves"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := pendingComment(tt.actionA, domain.TargetSpot, "spot-1", "a")
			b := pendingComment(tt.actionB, domain.TargetSpot, "spot-1", "b")

			pairs, _, err := service.DetectConflicts([]domain.Comment{a, b})

			require.NoError(t, err)
			require.Len(t, pairs, 1)
			assert.Equal(t, tt.reason, pairs[0].Reason)
		})
	}
}

func TestDetectConflicts_addVsLessDriving(t *testing.T) {
	add := pendingComment(domain.ActionAdd, domain.TargetDay, "day-2", "add a detour to the falls")
	drive := pendingComment(domain.ActionPreference, domain.TargetDay, "day-2", "we want less driving that day")

	pairs, _, err := service.DetectConflicts([]domain.Comment{add, drive})

	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "more stops vs less driving", pairs[0].Reason)

	// The rule is order-independent.
	pairs, _, err = service.DetectConflicts([]domain.Comment{drive, add})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
}

func TestDetectConflicts_dayOvercrowding(t *testing.T) {
	big := 120
	a := pendingComment(domain.ActionAdd, domain.TargetDay, "day-3", "add the glacier walk")
	a.Intent.EstimatedTimeImpactMinutes = &big
	b := pendingComment(domain.ActionAdd, domain.TargetDay, "day-3", "add the lava cave")
	b.Intent.EstimatedTimeImpactMinutes = &big

	pairs, _, err := service.DetectConflicts([]domain.Comment{a, b})

	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "day overcrowding", pairs[0].Reason)
}

func TestDetectConflicts_twoSmallAddsFitTheDay(t *testing.T) {
	small := 60
	a := pendingComment(domain.ActionAdd, domain.TargetDay, "day-3", "add a quick stop")
	a.Intent.EstimatedTimeImpactMinutes = &small
	b := pendingComment(domain.ActionAdd, domain.TargetDay, "day-3", "add a bakery visit")
	b.Intent.EstimatedTimeImpactMinutes = &small

	pairs, _, err := service.DetectConflicts([]domain.Comment{a, b})

	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestDetectConflicts_untaggedCommentsIgnored(t *testing.T) {
	a := pendingComment(domain.ActionExtend, domain.TargetSpot, "spot-1", "more time")
	b := pendingComment(domain.ActionShorten, domain.TargetSpot, "spot-1", "too long")
	b.Intent = nil

	pairs, _, err := service.DetectConflicts([]domain.Comment{a, b})

	require.NoError(t, err)
	assert.Empty(t, pairs)
}

// TestDetectConflicts_idempotent verifies that feeding detected sets back in
// produces the same sets, not duplicates.
func TestDetectConflicts_idempotent(t *testing.T) {
	a := pendingComment(domain.ActionExtend, domain.TargetSpot, "spot-1", "more time")
	b := pendingComment(domain.ActionShorten, domain.TargetSpot, "spot-1", "too long")

	_, first, err := service.DetectConflicts([]domain.Comment{a, b})
	require.NoError(t, err)

	a.ConflictsWith = first[a.ID]
	b.ConflictsWith = first[b.ID]

	_, second, err := service.DetectConflicts([]domain.Comment{a, b})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDetectConflicts_scanCap(t *testing.T) {
	pending := make([]domain.Comment, 201)
	for i := range pending {
		pending[i] = pendingComment(domain.ActionAdd, domain.TargetSpot, "spot-1", "add")
	}

	_, _, err := service.DetectConflicts(pending)

	assert.ErrorIs(t, err, domain.ErrValidation)
}
