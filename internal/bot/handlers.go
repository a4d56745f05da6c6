package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/mofucat/chatrank/internal/aggregation"
	"github.com/mofucat/chatrank/internal/card"
	"github.com/mofucat/chatrank/internal/database/types"
	"github.com/mofucat/chatrank/internal/fortune"
	"github.com/mofucat/chatrank/internal/tenor"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

func (b *Bot) handleSetRoles(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	guildID := *event.GuildID()

	first := data.Role("first")
	other := data.Role("other")

	if first.ID == other.ID {
		b.respondText(event, "The first and other roles must be different.")
		return
	}

	err := b.db.Service().Guild().SetConfig(ctx, &types.RoleConfig{
		GuildID:     guildID,
		FirstRoleID: first.ID,
		OtherRoleID: other.ID,
	})
	if err != nil {
		b.logger.Error("Failed to set role config", zap.Error(err))
		b.respondText(event, "Could not save the role configuration.")

		return
	}

	b.respondText(event, fmt.Sprintf("Ranking roles saved: first %s, other %s.", first.Mention(), other.Mention()))
}

func (b *Bot) handleExcludeRole(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	guildID := *event.GuildID()
	role := data.Role("role")

	switch data.String("action") {
	case "add":
		added, err := b.db.Service().Guild().AddExclusion(ctx, guildID, role.ID)
		if err != nil {
			b.logger.Error("Failed to add exclusion", zap.Error(err))
			b.respondText(event, "Could not update the exclusion list.")

			return
		}

		if !added {
			b.respondText(event, role.Mention()+" is already excluded.")
			return
		}

		b.respondText(event, role.Mention()+" holders are now excluded from ranking.")
	case "remove":
		removed, err := b.db.Service().Guild().RemoveExclusion(ctx, guildID, role.ID)
		if err != nil {
			b.logger.Error("Failed to remove exclusion", zap.Error(err))
			b.respondText(event, "Could not update the exclusion list.")

			return
		}

		if !removed {
			b.respondText(event, role.Mention()+" was not excluded.")
			return
		}

		b.respondText(event, role.Mention()+" holders are eligible for ranking again.")
	default:
		b.respondText(event, "Unknown action.")
	}
}

func (b *Bot) handleAggregate(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	guildID := *event.GuildID()

	startArg, hasStart := data.OptString("start")
	endArg, hasEnd := data.OptString("end")

	var window aggregation.Window

	if !hasStart && !hasEnd {
		// Quick path: rank by the live counters accumulated since the last
		// reset instead of scanning the message log.
		window = aggregation.LiveWindow(time.Now())
	} else {
		latest, err := b.engine.LatestHistory(ctx, guildID)
		if err != nil {
			b.logger.Error("Failed to load aggregation history", zap.Error(err))
			b.respondText(event, "Could not load the aggregation history.")

			return
		}

		window, err = aggregation.ResolveWindow(startArg, endArg, time.Now(), latest)
		if err != nil {
			b.respondText(event, describeRunError(err))
			return
		}
	}

	guildName := b.guildName(ctx, guildID)

	result, err := b.engine.Run(ctx, guildID, guildName, window)
	if err != nil {
		b.respondText(event, describeRunError(err))
		return
	}

	content := ""
	if result.SkippedMembers > 0 {
		content = fmt.Sprintf("Completed with warnings: %d member(s) skipped due to failed role changes.", result.SkippedMembers)
	}

	b.respondImage(event, "ranking.png", result.Image, content)
}

func (b *Bot) handleLeaderboard(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	guildID := *event.GuildID()

	view, err := b.leaderboardPage(ctx, guildID, event.User().ID, 0)
	if err != nil {
		b.logger.Error("Failed to load leaderboard", zap.Error(err))
		b.respondText(event, "Could not load the leaderboard.")

		return
	}

	if view == nil {
		b.respondText(event, "No messages counted yet.")
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
		b.logger.Error("Failed to send leaderboard", zap.Error(err))
	}
}

func (b *Bot) handleLevel(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	guildID := *event.GuildID()

	target := event.User()
	if user, ok := data.OptUser("user"); ok {
		target = user
	}

	record, progress, err := b.db.Service().Level().Profile(ctx, guildID, target.ID)
	if err != nil {
		b.logger.Error("Failed to load level profile", zap.Error(err))
		b.respondText(event, "Could not load the level profile.")

		return
	}

	settings, err := b.db.Model().Level().GetCardSettings(ctx, guildID, target.ID)
	if err != nil {
		b.logger.Error("Failed to load card settings", zap.Error(err))
		b.respondText(event, "Could not load the level profile.")

		return
	}

	periodMessages, err := b.db.Model().Activity().UserCount(ctx, guildID, target.ID)
	if err != nil {
		b.logger.Warn("Failed to load period message count", zap.Error(err))
	}

	image, err := b.renderer.RenderLevel(ctx, card.LevelCardData{
		Username:       target.EffectiveName(),
		AvatarURL:      target.EffectiveAvatarURL(),
		XP:             record.XP,
		Progress:       progress,
		PeriodMessages: periodMessages,
		BGTop:          settings.BGTop,
		BGBottom:       settings.BGBottom,
	})
	if err != nil {
		b.logger.Error("Failed to render level card", zap.Error(err))
		b.respondText(event, "Could not render the level card.")

		return
	}

	b.respondImage(event, "level.png", image, "")
}

func (b *Bot) handleLevelTop(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	guildID := *event.GuildID()

	levels, err := b.db.Model().Level().TopLevels(ctx, guildID, 10)
	if err != nil {
		b.logger.Error("Failed to load top levels", zap.Error(err))
		b.respondText(event, "Could not load the level rankings.")

		return
	}

	if len(levels) == 0 {
		b.respondText(event, "Nobody has earned XP yet.")
		return
	}

	var sb strings.Builder
	for i, record := range levels {
		fmt.Fprintf(&sb, "`#%d` <@%d> LV. %d (%d XP)\n", i+1, record.UserID, record.Level, record.XP)
	}

	b.respondEmbed(event, discord.Embed{
		Title:       "Level rankings",
		Description: sb.String(),
		Color:       embedColor,
	})
}

func (b *Bot) handleRoleColor(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	guildID := *event.GuildID()

	color, err := parseHex(data.String("color"))
	if err != nil {
		b.respondText(event, "Invalid color. Use a hex value like #ffcc00.")
		return
	}

	config, err := b.db.Service().Guild().GetConfig(ctx, guildID)
	if err != nil || config == nil {
		b.respondText(event, "Set the ranking roles first with /"+CommandSetRoles+".")
		return
	}

	// Remember the role's pre-customization color so aggregation runs can
	// restore it. Only the first customization records a color.
	roles, err := event.Client().Rest().GetRoles(guildID)
	if err == nil {
		for _, role := range roles {
			if role.ID == config.FirstRoleID {
				if err := b.db.Service().Guild().SaveRoleColor(ctx, guildID, role.ID, role.Color); err != nil {
					b.logger.Warn("Failed to save original role color", zap.Error(err))
				}

				break
			}
		}
	}

	_, err = event.Client().Rest().UpdateRole(guildID, config.FirstRoleID, discord.RoleUpdate{Color: &color})
	if err != nil {
		b.logger.Error("Failed to update role color", zap.Error(err))
		b.respondText(event, "Could not update the role color.")

		return
	}

	b.respondText(event, fmt.Sprintf("First role color set to #%06x.", color))
}

func (b *Bot) handleResetStreaks(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	guildID := *event.GuildID()

	affected, err := b.db.Model().Streak().ResetAll(ctx, guildID)
	if err != nil {
		b.logger.Error("Failed to reset streaks", zap.Error(err))
		b.respondText(event, "Could not reset streaks.")

		return
	}

	b.respondText(event, fmt.Sprintf("Reset %d streak(s).", affected))
}

func (b *Bot) handleFortune(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	guildID := *event.GuildID()
	user := event.User()

	key := fmt.Sprintf("fortune:%d:%d", guildID, user.ID)

	err := b.cooldowns.Do(ctx, b.cooldowns.B().Set().Key(key).Value("1").
		Nx().Ex(b.fortuneCooldown).Build()).Error()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			b.respondText(event, "You already drew a fortune. Try again later.")
			return
		}

		b.logger.Error("Failed to check fortune cooldown", zap.Error(err))
		b.respondText(event, "Could not draw a fortune right now.")

		return
	}

	result := fortune.Draw(rand.New(rand.NewSource(time.Now().UnixNano())))

	image, err := b.renderer.RenderFortune(result, user.EffectiveName())
	if err != nil {
		b.logger.Error("Failed to render fortune", zap.Error(err))
		b.respondText(event, "Could not render the fortune slip.")

		return
	}

	b.respondImage(event, "fortune.png", image, "")
}

func (b *Bot) handleGif(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	query := data.String("query")

	gifs, err := b.tenor.Search(ctx, query)
	if err != nil {
		if errors.Is(err, tenor.ErrNoResults) {
			b.respondText(event, "No GIFs found for that search.")
			return
		}

		b.logger.Error("Failed to search GIFs", zap.Error(err))
		b.respondText(event, "GIF search is unavailable right now.")

		return
	}

	pick := gifs[rand.Intn(len(gifs))]
	b.respondText(event, pick.URL)
}

func (b *Bot) handleLevelRole(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	guildID := *event.GuildID()

	threshold := data.Int("threshold")
	role := data.Role("role")

	if threshold <= 0 {
		b.respondText(event, "The level threshold must be positive.")
		return
	}

	if err := b.db.Model().Level().SetLevelRole(ctx, guildID, threshold, role.ID); err != nil {
		b.logger.Error("Failed to set level role", zap.Error(err))
		b.respondText(event, "Could not save the level role.")

		return
	}

	b.respondText(event, fmt.Sprintf("%s will be granted at level %d.", role.Mention(), threshold))
}

func (b *Bot) handleLevelCard(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	guildID := *event.GuildID()
	user := event.User()

	top, err := normalizeHex(data.String("top"))
	if err != nil {
		b.respondText(event, "Invalid color. Use hex values like #302160.")
		return
	}

	bottom, err := normalizeHex(data.String("bottom"))
	if err != nil {
		b.respondText(event, "Invalid color. Use hex values like #302160.")
		return
	}

	err = b.db.Model().Level().SaveCardSettings(ctx, &types.CardSettings{
		GuildID:  guildID,
		UserID:   user.ID,
		BGTop:    top,
		BGBottom: bottom,
	})
	if err != nil {
		b.logger.Error("Failed to save card settings", zap.Error(err))
		b.respondText(event, "Could not save your card settings.")

		return
	}

	b.respondText(event, "Level card background updated.")
}

func (b *Bot) handleHistory(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	guildID := *event.GuildID()

	records, err := b.db.Model().History().Recent(ctx, guildID, 12)
	if err != nil {
		b.logger.Error("Failed to load history", zap.Error(err))
		b.respondText(event, "Could not load the aggregation history.")

		return
	}

	image, err := b.renderer.RenderTrend(records)
	if err != nil {
		if errors.Is(err, card.ErrNotEnoughHistory) {
			b.respondText(event, "Run at least two aggregations to see a trend.")
			return
		}

		b.logger.Error("Failed to render trend chart", zap.Error(err))
		b.respondText(event, "Could not render the trend chart.")

		return
	}

	b.respondImage(event, "trend.png", image, "")
}

func (b *Bot) guildName(ctx context.Context, guildID snowflake.ID) string {
	guild, err := b.client.Rest().GetGuild(guildID, false)
	if err != nil {
		return ""
	}

	return guild.Name
}

// describeRunError maps engine errors to admin-facing messages.
func describeRunError(err error) string {
	switch {
	case errors.Is(err, aggregation.ErrConfigMissing):
		return "Set the ranking roles first with /" + CommandSetRoles + "."
	case errors.Is(err, aggregation.ErrRoleNotFound):
		return "A configured ranking role no longer exists. Update it with /" + CommandSetRoles + "."
	case errors.Is(err, aggregation.ErrInvalidWindow):
		return "Invalid window. Use YYYY-MM-DD dates, 't' for today, or 'last'."
	case errors.Is(err, aggregation.ErrNoPriorAggregation):
		return "There is no previous aggregation to continue from."
	case errors.Is(err, aggregation.ErrNoActivity):
		return "No messages were counted in that window."
	case errors.Is(err, aggregation.ErrNoEligibleUsers):
		return "Everyone with counted messages is excluded or has left."
	case errors.Is(err, aggregation.ErrRunInProgress):
		return "An aggregation is already running for this server."
	case errors.Is(err, aggregation.ErrRenderFailure):
		return "The ranking completed but the card could not be rendered. Counters were kept; run it again."
	default:
		return "Aggregation failed. Check the logs and try again."
	}
}

// normalizeHex validates a hex color argument and returns it in "#rrggbb"
// form.
func normalizeHex(s string) (string, error) {
	value, err := parseHex(s)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("#%06x", value), nil
}

func parseHex(s string) (int, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}

	if len(s) != 6 {
		return 0, fmt.Errorf("invalid hex color %q", s)
	}

	value, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex color %q: %w", s, err)
	}

	return int(value), nil
}
