package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/mofucat/chatrank/internal/aggregation"
	"github.com/mofucat/chatrank/internal/database/types"
	"go.uber.org/zap"
)

const (
	leaderboardPageSize = 25
	leaderboardIDPrefix = "lb:"

	embedColor = 0x5865f2
)

// LeaderboardPage is one rendered page of the full ranking, with the
// pagination buttons wired to the target pages.
type LeaderboardPage struct {
	Embed      discord.Embed
	Components []discord.ContainerComponent
	Page       int
	Pages      int
}

// BuildLeaderboardPage formats one page of the ranking as an embed. The page
// index is clamped into range, so stale buttons from a shrunken ranking still
// resolve to a valid page. The viewer's own rank and streak go in the footer
// even when they fall outside the page.
func BuildLeaderboardPage(
	guildName string, ranked []types.RankedUser, viewerID snowflake.ID, viewerStreak uint32, page int,
) LeaderboardPage {
	pages := (len(ranked) + leaderboardPageSize - 1) / leaderboardPageSize
	if pages == 0 {
		pages = 1
	}

	if page < 0 {
		page = 0
	}
	if page >= pages {
		page = pages - 1
	}

	start := page * leaderboardPageSize
	end := min(start+leaderboardPageSize, len(ranked))

	var sb strings.Builder
	for _, user := range ranked[start:end] {
		fmt.Fprintf(&sb, "`#%d` <@%d> %d messages\n", user.Rank, user.UserID, user.Count)
	}

	footer := fmt.Sprintf("Page %d/%d", page+1, pages)
	if rank, ok := viewerRank(ranked, viewerID); ok {
		footer += fmt.Sprintf(" | Your rank: #%d of %d", rank, len(ranked))
		if viewerStreak > 0 {
			footer += fmt.Sprintf(" | Streak: %d", viewerStreak)
		}
	}

	title := "Leaderboard"
	if guildName != "" {
		title = guildName + " Leaderboard"
	}

	return LeaderboardPage{
		Embed: discord.Embed{
			Title:       title,
			Description: sb.String(),
			Color:       embedColor,
			Footer:      &discord.EmbedFooter{Text: footer},
		},
		Components: []discord.ContainerComponent{
			discord.NewActionRow(
				discord.NewSecondaryButton("Prev", leaderboardCustomID(page-1)).WithDisabled(page == 0),
				discord.NewSecondaryButton("Next", leaderboardCustomID(page+1)).WithDisabled(page >= pages-1),
			),
		},
		Page:  page,
		Pages: pages,
	}
}

func viewerRank(ranked []types.RankedUser, viewerID snowflake.ID) (int, bool) {
	for _, user := range ranked {
		if user.UserID == viewerID {
			return user.Rank, true
		}
	}

	return 0, false
}

func leaderboardCustomID(page int) string {
	return leaderboardIDPrefix + strconv.Itoa(page)
}

func parseLeaderboardPage(customID string) (int, bool) {
	raw, ok := strings.CutPrefix(customID, leaderboardIDPrefix)
	if !ok {
		return 0, false
	}

	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}

	return page, true
}

// leaderboardPage ranks the live counters and builds the requested page. A
// nil page with no error means the guild has no counted messages.
func (b *Bot) leaderboardPage(
	ctx context.Context, guildID, viewerID snowflake.ID, page int,
) (*LeaderboardPage, error) {
	counts, err := b.db.Model().Activity().CurrentCounts(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if len(counts) == 0 {
		return nil, nil
	}

	ranked := aggregation.Rank(counts, len(counts))

	var viewerStreak uint32
	if streak, err := b.db.Model().Streak().Get(ctx, guildID, viewerID); err == nil {
		viewerStreak = streak.Count
	}

	view := BuildLeaderboardPage(b.guildName(ctx, guildID), ranked, viewerID, viewerStreak, page)

	return &view, nil
}

// handleComponentInteraction routes button presses. Only the leaderboard
// pagination buttons exist today.
func (b *Bot) handleComponentInteraction(event *events.ComponentInteractionCreate) {
	target, ok := parseLeaderboardPage(event.Data.CustomID())
	if !ok {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in component handler", zap.Any("panic", r))
			}
		}()

		if err := event.DeferUpdateMessage(); err != nil {
			b.logger.Error("Failed to defer component response", zap.Error(err))
			return
		}

		guildID := event.GuildID()
		if guildID == nil {
			return
		}

		ctx := context.Background()

		view, err := b.leaderboardPage(ctx, *guildID, event.User().ID, target)
		if err != nil {
			b.logger.Error("Failed to build leaderboard page", zap.Error(err))
			return
		}

		if view == nil {
			return
		}

		_, err = event.Client().Rest().UpdateInteractionResponse(
			event.ApplicationID(), event.Token(),
			discord.MessageUpdate{
				Embeds:     &[]discord.Embed{view.Embed},
				Components: &view.Components,
			},
		)
		if err != nil {
			b.logger.Error("Failed to update leaderboard page", zap.Error(err))
		}
	}()
}
