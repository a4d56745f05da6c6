// Package bot wires the Discord client to the aggregation engine, the card
// renderer, and the rest of the command surface.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/mofucat/chatrank/internal/aggregation"
	"github.com/mofucat/chatrank/internal/card"
	"github.com/mofucat/chatrank/internal/database"
	"github.com/mofucat/chatrank/internal/redis"
	"github.com/mofucat/chatrank/internal/setup"
	"github.com/mofucat/chatrank/internal/tenor"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// Bot owns the Discord client and all command handling state.
type Bot struct {
	client    bot.Client
	db        database.Client
	engine    *aggregation.Engine
	renderer  *card.Renderer
	tenor     *tenor.Client
	cooldowns rueidis.Client
	logger    *zap.Logger

	fortuneCooldown time.Duration
}

// New initializes the bot, its Discord client, and the aggregation engine.
func New(app *setup.App, logger *zap.Logger) (*Bot, error) {
	renderer, err := card.NewRenderer(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create card renderer: %w", err)
	}

	cooldownClient, err := app.RedisManager.GetClient(redis.CooldownDBIndex)
	if err != nil {
		return nil, err
	}

	cooldownMinutes := app.Config.Bot.Fortune.CooldownMinutes
	if cooldownMinutes <= 0 {
		cooldownMinutes = 60
	}

	b := &Bot{
		db:              app.DB,
		renderer:        renderer,
		tenor:           app.Tenor,
		cooldowns:       cooldownClient,
		logger:          logger.Named("bot"),
		fortuneCooldown: time.Duration(cooldownMinutes) * time.Minute,
	}

	client, err := disgo.New(app.Config.Bot.Discord.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
			),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnGuildMessageCreate:            b.handleGuildMessageCreate,
			OnApplicationCommandInteraction: b.handleApplicationCommandInteraction,
			OnComponentInteraction:          b.handleComponentInteraction,
			OnModalSubmit:                   b.handleModalSubmit,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}

	b.client = client
	b.engine = aggregation.NewEngine(
		app.DB.Model().Activity(),
		app.DB.Service().Guild(),
		app.DB.Model().Streak(),
		app.DB.Model().History(),
		aggregation.NewDiscordRoleManager(client.Rest(), logger),
		renderer,
		logger,
	)

	return b, nil
}

// Start registers the command set with Discord and opens the gateway
// connection.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Registering commands")

	_, err := b.client.Rest().SetGlobalCommands(b.client.ApplicationID(), commands())
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	b.logger.Info("Starting bot")

	return b.client.OpenGateway(ctx)
}

// Close gracefully shuts down the Discord gateway connection.
func (b *Bot) Close(ctx context.Context) {
	b.logger.Info("Closing bot")
	b.client.Close(ctx)
}
