package bot

import (
	"bytes"
	"context"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"go.uber.org/zap"
)

// handleApplicationCommandInteraction defers the response, gates the command
// on guild authorization, and dispatches to the command handler in a
// goroutine so slow runs do not block the gateway.
func (b *Bot) handleApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	name := data.CommandName()

	// The authorize flow opens a modal, which cannot follow a deferred
	// response.
	if name == CommandAuthorize {
		b.handleAuthorize(event)
		return
	}

	go func() {
		start := time.Now()

		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in command handler",
					zap.String("command", name),
					zap.Any("panic", r))
				b.respondText(event, "Internal error. Please report this to an administrator.")
			}

			b.logger.Debug("Command handled",
				zap.String("command", name),
				zap.Duration("duration", time.Since(start)))
		}()

		if err := event.DeferCreateMessage(false); err != nil {
			b.logger.Error("Failed to defer response", zap.Error(err))
			return
		}

		ctx := context.Background()

		guildID := event.GuildID()
		if guildID == nil {
			b.respondText(event, "This command only works in a server.")
			return
		}

		authorized, err := b.db.Service().Auth().IsAuthorized(ctx, *guildID)
		if err != nil {
			b.respondText(event, "Could not check authorization. Try again later.")
			return
		}

		if !authorized {
			b.respondText(event, "This server is not authorized. An administrator can unlock it with /"+CommandAuthorize+".")
			return
		}

		switch name {
		case CommandSetRoles:
			b.handleSetRoles(ctx, event)
		case CommandExcludeRole:
			b.handleExcludeRole(ctx, event)
		case CommandAggregate:
			b.handleAggregate(ctx, event)
		case CommandLeaderboard:
			b.handleLeaderboard(ctx, event)
		case CommandLevel:
			b.handleLevel(ctx, event)
		case CommandLevelTop:
			b.handleLevelTop(ctx, event)
		case CommandRoleColor:
			b.handleRoleColor(ctx, event)
		case CommandResetStreaks:
			b.handleResetStreaks(ctx, event)
		case CommandFortune:
			b.handleFortune(ctx, event)
		case CommandGif:
			b.handleGif(ctx, event)
		case CommandLevelRole:
			b.handleLevelRole(ctx, event)
		case CommandLevelCard:
			b.handleLevelCard(ctx, event)
		case CommandHistory:
			b.handleHistory(ctx, event)
		default:
			b.respondText(event, "Unknown command.")
		}
	}()
}

func (b *Bot) respondText(event *events.ApplicationCommandInteractionCreate, content string) {
	_, err := event.Client().Rest().UpdateInteractionResponse(
		event.ApplicationID(), event.Token(),
		discord.MessageUpdate{Content: &content},
	)
	if err != nil {
		b.logger.Error("Failed to send response", zap.Error(err))
	}
}

func (b *Bot) respondEmbed(event *events.ApplicationCommandInteractionCreate, embed discord.Embed) {
	_, err := event.Client().Rest().UpdateInteractionResponse(
		event.ApplicationID(), event.Token(),
		discord.MessageUpdate{Embeds: &[]discord.Embed{embed}},
	)
	if err != nil {
		b.logger.Error("Failed to send embed response", zap.Error(err))
	}
}

func (b *Bot) respondImage(event *events.ApplicationCommandInteractionCreate, filename string, image []byte, content string) {
	update := discord.MessageUpdate{
		Files: []*discord.File{discord.NewFile(filename, "", bytes.NewReader(image))},
	}
	if content != "" {
		update.Content = &content
	}

	_, err := event.Client().Rest().UpdateInteractionResponse(
		event.ApplicationID(), event.Token(), update,
	)
	if err != nil {
		b.logger.Error("Failed to send image response", zap.Error(err))
	}
}
