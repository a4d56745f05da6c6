package bot

import (
	"context"

	"github.com/disgoorg/disgo/events"
	"go.uber.org/zap"
)

// handleGuildMessageCreate counts one message on the hot path: authorization
// gate, counter increment plus log append, then XP award. Exclusions are not
// applied here; excluded users are filtered at ranking time so their raw
// counts stay intact.
func (b *Bot) handleGuildMessageCreate(event *events.GuildMessageCreate) {
	if event.Message.Author.Bot || event.Message.Author.System {
		return
	}

	ctx := context.Background()
	guildID := event.GuildID
	userID := event.Message.Author.ID

	authorized, err := b.db.Service().Auth().IsAuthorized(ctx, guildID)
	if err != nil {
		b.logger.Error("Failed to check guild authorization",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Error(err))

		return
	}

	if !authorized {
		return
	}

	err = b.db.Model().Activity().RecordMessage(ctx, guildID, userID, event.Message.ID, event.Message.CreatedAt)
	if err != nil {
		b.logger.Error("Failed to record message",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Uint64("userID", uint64(userID)),
			zap.Error(err))

		return
	}

	levelUp, err := b.db.Service().Level().AwardMessageXP(ctx, guildID, userID)
	if err != nil {
		b.logger.Error("Failed to award message XP",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Uint64("userID", uint64(userID)),
			zap.Error(err))

		return
	}

	if levelUp == nil {
		return
	}

	for _, roleID := range levelUp.EarnedRoles {
		if err := b.client.Rest().AddMemberRole(guildID, userID, roleID); err != nil {
			b.logger.Warn("Failed to grant level role",
				zap.Uint64("guildID", uint64(guildID)),
				zap.Uint64("userID", uint64(userID)),
				zap.Uint64("roleID", uint64(roleID)),
				zap.Error(err))
		}
	}
}
