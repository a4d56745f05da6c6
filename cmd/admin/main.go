package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/disgoorg/snowflake/v2"
	"github.com/mofucat/chatrank/internal/setup"
	"github.com/mofucat/chatrank/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
)

const (
	// AdminLogDir specifies where admin tool log files are stored.
	AdminLogDir = "logs/admin_logs"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "admin",
		Usage: "Manage chatrank invite codes and guild authorization",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate invite codes",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Value:   1,
						Usage:   "Number of codes to generate",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withApp(ctx, func(ctx context.Context, app *setup.App) error {
						for range c.Int("count") {
							code, err := app.DB.Service().Auth().GenerateCode(ctx)
							if err != nil {
								return fmt.Errorf("failed to generate code: %w", err)
							}

							fmt.Println(code)
						}

						return nil
					})
				},
			},
			{
				Name:  "list",
				Usage: "List all invite codes and their status",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return withApp(ctx, func(ctx context.Context, app *setup.App) error {
						codes, err := app.DB.Service().Auth().ListCodes(ctx)
						if err != nil {
							return fmt.Errorf("failed to list codes: %w", err)
						}

						for _, code := range codes {
							status := "unused"
							if code.Used {
								status = "used"
								if code.UsedBy != nil {
									status = fmt.Sprintf("used by guild %d", *code.UsedBy)
								}
							}

							fmt.Printf("%s\t%s\t%s\n", code.Code, code.CreatedAt.Format("2006-01-02"), status)
						}

						return nil
					})
				},
			},
			{
				Name:      "revoke",
				Usage:     "Revoke a guild's authorization",
				ArgsUsage: "<guild-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one guild ID argument")
					}

					raw, err := strconv.ParseUint(c.Args().First(), 10, 64)
					if err != nil {
						return fmt.Errorf("invalid guild ID %q: %w", c.Args().First(), err)
					}

					return withApp(ctx, func(ctx context.Context, app *setup.App) error {
						revoked, err := app.DB.Service().Auth().Revoke(ctx, snowflake.ID(raw))
						if err != nil {
							return fmt.Errorf("failed to revoke guild: %w", err)
						}

						if !revoked {
							fmt.Println("Guild was not authorized.")
							return nil
						}

						fmt.Println("Guild authorization revoked.")

						return nil
					})
				},
			},
		},
	}

	return app.Run(context.Background(), os.Args)
}

// withApp initializes the application bundle, runs fn, and cleans up.
func withApp(ctx context.Context, fn func(context.Context, *setup.App) error) error {
	app, err := setup.InitializeApp(ctx, telemetry.ServiceAdmin, AdminLogDir, "")
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(ctx)

	return fn(ctx, app)
}
