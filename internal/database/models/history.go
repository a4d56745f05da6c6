package models

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/mofucat/chatrank/internal/database/dbretry"
	"github.com/mofucat/chatrank/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// HistoryModel handles database operations for the aggregation audit log.
type HistoryModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewHistory creates a HistoryModel with database access.
func NewHistory(db *bun.DB, logger *zap.Logger) *HistoryModel {
	return &HistoryModel{
		db:     db,
		logger: logger.Named("db_history"),
	}
}

// Append records one successful aggregation run.
func (r *HistoryModel) Append(ctx context.Context, record *types.AggregateHistory) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().Model(record).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to append aggregate history: %w (guildID=%d)", err, record.GuildID)
		}

		return nil
	})
}

// Latest returns the most recent aggregation record for a guild, nil when the
// guild has never aggregated.
func (r *HistoryModel) Latest(ctx context.Context, guildID snowflake.ID) (*types.AggregateHistory, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.AggregateHistory, error) {
		record := new(types.AggregateHistory)

		err := r.db.NewSelect().Model(record).
			Where("guild_id = ?", guildID).
			Order("aggregated_at DESC").
			Limit(1).
			Scan(ctx)
		if err != nil {
			if isNoRows(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to get latest aggregation: %w (guildID=%d)", err, guildID)
		}

		return record, nil
	})
}

// Recent returns up to limit aggregation records for a guild, newest first.
func (r *HistoryModel) Recent(
	ctx context.Context, guildID snowflake.ID, limit int,
) ([]*types.AggregateHistory, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.AggregateHistory, error) {
		var records []*types.AggregateHistory

		err := r.db.NewSelect().Model(&records).
			Where("guild_id = ?", guildID).
			Order("aggregated_at DESC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get recent aggregations: %w (guildID=%d)", err, guildID)
		}

		return records, nil
	})
}
