package bot_test

import (
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/mofucat/chatrank/internal/bot"
	"github.com/mofucat/chatrank/internal/database/types"
	"github.com/mofucat/chatrank/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rankedUsers builds n users ranked 1..n with descending counts.
func rankedUsers(n int) []types.RankedUser {
	ranked := make([]types.RankedUser, n)
	for i := range n {
		tier := enum.TierOther
		if i == 0 {
			tier = enum.TierFirst
		}

		ranked[i] = types.RankedUser{
			UserID: snowflake.ID(i + 1),
			Count:  uint64(1000 - i),
			Rank:   i + 1,
			Tier:   tier,
		}
	}

	return ranked
}

func pageButtons(t *testing.T, page bot.LeaderboardPage) (discord.ButtonComponent, discord.ButtonComponent) {
	t.Helper()

	require.Len(t, page.Components, 1)

	row, ok := page.Components[0].(discord.ActionRowComponent)
	require.True(t, ok)
	require.Len(t, row, 2)

	prev, ok := row[0].(discord.ButtonComponent)
	require.True(t, ok)

	next, ok := row[1].(discord.ButtonComponent)
	require.True(t, ok)

	return prev, next
}

func TestBuildLeaderboardPage(t *testing.T) {
	t.Parallel()

	t.Run("single page disables both buttons", func(t *testing.T) {
		t.Parallel()

		page := bot.BuildLeaderboardPage("guild", rankedUsers(3), 0, 0, 0)

		assert.Equal(t, 0, page.Page)
		assert.Equal(t, 1, page.Pages)
		assert.Contains(t, page.Embed.Description, "`#1`")
		assert.Contains(t, page.Embed.Description, "`#3`")
		assert.Equal(t, "guild Leaderboard", page.Embed.Title)
		require.NotNil(t, page.Embed.Footer)
		assert.Equal(t, "Page 1/1", page.Embed.Footer.Text)

		prev, next := pageButtons(t, page)
		assert.True(t, prev.Disabled)
		assert.True(t, next.Disabled)
	})

	t.Run("first of three pages", func(t *testing.T) {
		t.Parallel()

		page := bot.BuildLeaderboardPage("guild", rankedUsers(60), 0, 0, 0)

		assert.Equal(t, 3, page.Pages)
		assert.Contains(t, page.Embed.Description, "`#25`")
		assert.NotContains(t, page.Embed.Description, "`#26`")

		prev, next := pageButtons(t, page)
		assert.True(t, prev.Disabled)
		assert.False(t, next.Disabled)
		assert.Equal(t, "lb:1", next.CustomID)
	})

	t.Run("middle page links both neighbors", func(t *testing.T) {
		t.Parallel()

		page := bot.BuildLeaderboardPage("guild", rankedUsers(60), 0, 0, 1)

		assert.Contains(t, page.Embed.Description, "`#26`")
		assert.Contains(t, page.Embed.Description, "`#50`")
		assert.NotContains(t, page.Embed.Description, "`#51`")

		prev, next := pageButtons(t, page)
		assert.False(t, prev.Disabled)
		assert.False(t, next.Disabled)
		assert.Equal(t, "lb:0", prev.CustomID)
		assert.Equal(t, "lb:2", next.CustomID)
	})

	t.Run("out of range pages clamp", func(t *testing.T) {
		t.Parallel()

		last := bot.BuildLeaderboardPage("guild", rankedUsers(60), 0, 0, 99)
		assert.Equal(t, 2, last.Page)
		assert.Contains(t, last.Embed.Description, "`#60`")

		_, next := pageButtons(t, last)
		assert.True(t, next.Disabled)

		first := bot.BuildLeaderboardPage("guild", rankedUsers(60), 0, 0, -5)
		assert.Equal(t, 0, first.Page)
	})

	t.Run("viewer rank and streak in footer", func(t *testing.T) {
		t.Parallel()

		ranked := rankedUsers(60)

		page := bot.BuildLeaderboardPage("guild", ranked, ranked[41].UserID, 3, 0)

		require.NotNil(t, page.Embed.Footer)
		assert.Equal(t, "Page 1/3 | Your rank: #42 of 60 | Streak: 3", page.Embed.Footer.Text)
	})

	t.Run("unranked viewer gets no rank footer", func(t *testing.T) {
		t.Parallel()

		page := bot.BuildLeaderboardPage("guild", rankedUsers(3), 9999, 5, 0)

		require.NotNil(t, page.Embed.Footer)
		assert.Equal(t, "Page 1/1", page.Embed.Footer.Text)
	})

	t.Run("missing guild name falls back to plain title", func(t *testing.T) {
		t.Parallel()

		page := bot.BuildLeaderboardPage("", rankedUsers(1), 0, 0, 0)

		assert.Equal(t, "Leaderboard", page.Embed.Title)
	})
}
