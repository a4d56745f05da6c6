package migrations

import (
	"context"
	"fmt"

	"github.com/mofucat/chatrank/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.ActivityCount)(nil),
			(*types.Message)(nil),
			(*types.RoleConfig)(nil),
			(*types.ExcludedRole)(nil),
			(*types.RoleColor)(nil),
			(*types.Streak)(nil),
			(*types.AggregateHistory)(nil),
			(*types.AuthCode)(nil),
			(*types.AuthorizedGuild)(nil),
			(*types.UserLevel)(nil),
			(*types.LevelRole)(nil),
			(*types.CardSettings)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table for %T: %w", model, err)
			}
		}

		indexes := []struct {
			model   any
			name    string
			columns []string
		}{
			{(*types.Message)(nil), "idx_messages_guild_timestamp", []string{"guild_id", "timestamp"}},
			{(*types.Message)(nil), "idx_messages_timestamp", []string{"timestamp"}},
			{(*types.ActivityCount)(nil), "idx_activity_counts_guild", []string{"guild_id"}},
			{(*types.AggregateHistory)(nil), "idx_aggregate_histories_guild_time", []string{"guild_id", "aggregated_at"}},
			{(*types.Streak)(nil), "idx_streaks_guild", []string{"guild_id"}},
			{(*types.UserLevel)(nil), "idx_user_levels_guild_xp", []string{"guild_id", "xp"}},
		}

		for _, index := range indexes {
			_, err := db.NewCreateIndex().
				Model(index.model).
				Index(index.name).
				Column(index.columns...).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create index %s: %w", index.name, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.CardSettings)(nil),
			(*types.LevelRole)(nil),
			(*types.UserLevel)(nil),
			(*types.AuthorizedGuild)(nil),
			(*types.AuthCode)(nil),
			(*types.AggregateHistory)(nil),
			(*types.Streak)(nil),
			(*types.RoleColor)(nil),
			(*types.ExcludedRole)(nil),
			(*types.RoleConfig)(nil),
			(*types.Message)(nil),
			(*types.ActivityCount)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table for %T: %w", model, err)
			}
		}

		return nil
	})
}
