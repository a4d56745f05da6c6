package card_test

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/mofucat/chatrank/internal/aggregation"
	"github.com/mofucat/chatrank/internal/card"
	"github.com/mofucat/chatrank/internal/database/types"
	"github.com/mofucat/chatrank/internal/database/types/enum"
	"github.com/mofucat/chatrank/internal/fortune"
	"github.com/mofucat/chatrank/internal/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRenderer(t *testing.T) *card.Renderer {
	t.Helper()

	renderer, err := card.NewRenderer(zap.NewNop())
	require.NoError(t, err)

	return renderer
}

func decodePNG(t *testing.T, data []byte) (width, height int) {
	t.Helper()

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	bounds := img.Bounds()

	return bounds.Dx(), bounds.Dy()
}

func TestRenderRanking(t *testing.T) {
	t.Parallel()

	renderer := newRenderer(t)

	entries := []aggregation.RenderEntry{
		{UserID: 1, Username: "alice", Count: 120, Rank: 1, Tier: enum.TierFirst, Streak: 3},
		{UserID: 2, Username: "bob", Count: 90, Rank: 2, Tier: enum.TierOther, Streak: 1},
		{UserID: 3, Username: "a-very-long-username-that-needs-truncation", Count: 40, Rank: 3, Tier: enum.TierOther},
	}

	image, err := renderer.RenderRanking(t.Context(), aggregation.RenderData{
		GuildName: "Test Guild",
		Entries:   entries,
		Window: aggregation.Window{
			Start: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 8, 28, 23, 59, 59, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	width, height := decodePNG(t, image)
	assert.Equal(t, 920, width)
	assert.Positive(t, height)
}

func TestRenderRankingLiveWindow(t *testing.T) {
	t.Parallel()

	renderer := newRenderer(t)

	image, err := renderer.RenderRanking(t.Context(), aggregation.RenderData{
		GuildName: "Test Guild",
		Entries: []aggregation.RenderEntry{
			{UserID: 1, Username: "alice", Count: 1, Rank: 1, Tier: enum.TierFirst},
		},
		Window: aggregation.LiveWindow(time.Now()),
	})
	require.NoError(t, err)

	decodePNG(t, image)
}

func TestRenderLevel(t *testing.T) {
	t.Parallel()

	renderer := newRenderer(t)

	tests := []struct {
		name string
		data card.LevelCardData
	}{
		{
			name: "defaults",
			data: card.LevelCardData{
				Username: "alice",
				XP:       100,
				Progress: level.ProgressForXP(100),
			},
		},
		{
			name: "custom background",
			data: card.LevelCardData{
				Username:       "bob",
				XP:             2000,
				Progress:       level.ProgressForXP(2000),
				PeriodMessages: 123,
				BGTop:          "#112233",
				BGBottom:       "#445566",
			},
		},
		{
			name: "invalid hex falls back to defaults",
			data: card.LevelCardData{
				Username: "carol",
				Progress: level.ProgressForXP(0),
				BGTop:    "not-a-color",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			image, err := renderer.RenderLevel(t.Context(), tt.data)
			require.NoError(t, err)

			width, _ := decodePNG(t, image)
			assert.Equal(t, 800, width)
		})
	}
}

func TestRenderFortune(t *testing.T) {
	t.Parallel()

	renderer := newRenderer(t)

	for _, grade := range []fortune.Grade{
		fortune.GradeGreatBlessing,
		fortune.GradeBlessing,
		fortune.GradeSmallBlessing,
		fortune.GradeMisfortune,
	} {
		image, err := renderer.RenderFortune(fortune.Result{
			Grade:   grade,
			Message: "Steady effort pays off sooner than you think.",
		}, "alice")
		require.NoError(t, err, "grade %s", grade)

		decodePNG(t, image)
	}
}

func TestRenderTrend(t *testing.T) {
	t.Parallel()

	renderer := newRenderer(t)

	records := []*types.AggregateHistory{
		{
			AggregatedAt: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
			Rankings: []types.RankedUser{
				{UserID: 1, Count: 80, Rank: 1, Tier: enum.TierFirst},
				{UserID: 2, Count: 20, Rank: 2, Tier: enum.TierOther},
			},
		},
		{
			AggregatedAt: time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC),
			Rankings: []types.RankedUser{
				{UserID: 1, Count: 50, Rank: 1, Tier: enum.TierFirst},
			},
		},
	}

	image, err := renderer.RenderTrend(records)
	require.NoError(t, err)

	decodePNG(t, image)
}

func TestRenderTrendNotEnoughHistory(t *testing.T) {
	t.Parallel()

	renderer := newRenderer(t)

	_, err := renderer.RenderTrend(nil)
	require.ErrorIs(t, err, card.ErrNotEnoughHistory)

	_, err = renderer.RenderTrend([]*types.AggregateHistory{{AggregatedAt: time.Now()}})
	require.ErrorIs(t, err, card.ErrNotEnoughHistory)
}
