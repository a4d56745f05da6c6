package bot

import (
	"context"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/mofucat/chatrank/internal/database/service"
	"go.uber.org/zap"
)

// handleAuthorize opens the invite code modal. It replies with the modal
// directly instead of deferring, since a modal must be the first response to
// an interaction.
func (b *Bot) handleAuthorize(event *events.ApplicationCommandInteractionCreate) {
	if event.GuildID() == nil {
		if err := event.CreateMessage(discord.MessageCreate{
			Content: "This command only works in a server.",
			Flags:   discord.MessageFlagEphemeral,
		}); err != nil {
			b.logger.Error("Failed to send response", zap.Error(err))
		}

		return
	}

	err := event.Modal(discord.ModalCreate{
		CustomID: ModalAuthCode,
		Title:    "Authorize this server",
		Components: []discord.ContainerComponent{
			discord.NewActionRow(
				discord.TextInputComponent{
					CustomID:    "code",
					Style:       discord.TextInputStyleShort,
					Label:       "Invite code",
					Required:    true,
					MinLength:   intPtr(service.CodeLength),
					MaxLength:   service.CodeLength,
					Placeholder: "XXXXXXXXXXXXXXXX",
				},
			),
		},
	})
	if err != nil {
		b.logger.Error("Failed to open authorize modal", zap.Error(err))
	}
}

// handleModalSubmit redeems the submitted invite code for the current guild.
func (b *Bot) handleModalSubmit(event *events.ModalSubmitInteractionCreate) {
	if event.Data.CustomID != ModalAuthCode {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in modal handler", zap.Any("panic", r))
			}
		}()

		ctx := context.Background()

		if err := event.DeferCreateMessage(true); err != nil {
			b.logger.Error("Failed to defer modal response", zap.Error(err))
			return
		}

		respond := func(content string) {
			_, err := event.Client().Rest().UpdateInteractionResponse(
				event.ApplicationID(), event.Token(),
				discord.MessageUpdate{Content: &content},
			)
			if err != nil {
				b.logger.Error("Failed to send modal response", zap.Error(err))
			}
		}

		guildID := event.GuildID()
		if guildID == nil {
			respond("This command only works in a server.")
			return
		}

		code := strings.ToUpper(strings.TrimSpace(event.Data.Text("code")))

		redeemed, err := b.db.Service().Auth().Redeem(ctx, code, *guildID)
		if err != nil {
			b.logger.Error("Failed to redeem invite code", zap.Error(err))
			respond("Could not redeem the code. Try again later.")

			return
		}

		if !redeemed {
			respond("That code is invalid or has already been used.")
			return
		}

		b.logger.Info("Guild authorized",
			zap.Uint64("guildID", uint64(*guildID)))
		respond("This server is now authorized. Set up ranking roles with /" + CommandSetRoles + ".")
	}()
}

func intPtr(v int) *int {
	return &v
}
