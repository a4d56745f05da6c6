package types_test

import (
	"testing"

	"github.com/mofucat/chatrank/internal/database/types"
	"github.com/mofucat/chatrank/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
)

func TestAdvanceStreak(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		current   *types.Streak
		award     enum.Tier
		wantTier  enum.Tier
		wantCount uint32
	}{
		{
			name:      "no prior record starts a run",
			current:   nil,
			award:     enum.TierFirst,
			wantTier:  enum.TierFirst,
			wantCount: 1,
		},
		{
			name:      "same tier extends the run",
			current:   &types.Streak{Tier: enum.TierFirst, Count: 3},
			award:     enum.TierFirst,
			wantTier:  enum.TierFirst,
			wantCount: 4,
		},
		{
			name:      "tier change starts a new run",
			current:   &types.Streak{Tier: enum.TierFirst, Count: 5},
			award:     enum.TierOther,
			wantTier:  enum.TierOther,
			wantCount: 1,
		},
		{
			name:      "promotion also starts a new run",
			current:   &types.Streak{Tier: enum.TierOther, Count: 7},
			award:     enum.TierFirst,
			wantTier:  enum.TierFirst,
			wantCount: 1,
		},
		{
			name: "reset record with retained tier resumes at one",
			// This is what a record looks like after a demotion reset:
			// count zero but the old tier label still in place.
			current:   &types.Streak{Tier: enum.TierOther, Count: 0},
			award:     enum.TierOther,
			wantTier:  enum.TierOther,
			wantCount: 1,
		},
		{
			name:      "zero record with none tier",
			current:   &types.Streak{Tier: enum.TierNone, Count: 0},
			award:     enum.TierOther,
			wantTier:  enum.TierOther,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tier, count := types.AdvanceStreak(tt.current, tt.award)
			assert.Equal(t, tt.wantTier, tier)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}
