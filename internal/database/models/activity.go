package models

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/mofucat/chatrank/internal/database/dbretry"
	"github.com/mofucat/chatrank/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ActivityModel handles database operations for message counts and the
// message log.
type ActivityModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewActivity creates an ActivityModel with database access.
func NewActivity(db *bun.DB, logger *zap.Logger) *ActivityModel {
	return &ActivityModel{
		db:     db,
		logger: logger.Named("db_activity"),
	}
}

// RecordMessage increments the live counter for a user and appends the
// message to the log in a single transaction.
func (r *ActivityModel) RecordMessage(
	ctx context.Context, guildID, userID, messageID snowflake.ID, timestamp time.Time,
) error {
	return dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		count := &types.ActivityCount{
			GuildID:   guildID,
			UserID:    userID,
			Count:     1,
			UpdatedAt: timestamp,
		}

		_, err := tx.NewInsert().Model(count).
			On("CONFLICT (guild_id, user_id) DO UPDATE").
			Set("count = activity_count.count + 1").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to increment message count: %w (guildID=%d, userID=%d)", err, guildID, userID)
		}

		msg := &types.Message{
			GuildID:   guildID,
			MessageID: messageID,
			UserID:    userID,
			Timestamp: timestamp,
		}

		_, err = tx.NewInsert().Model(msg).
			On("CONFLICT (guild_id, message_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to log message: %w (guildID=%d, messageID=%d)", err, guildID, messageID)
		}

		return nil
	})
}

// CountsInWindow tallies logged messages per user between start and end.
// Both bounds are inclusive. Results come back in encounter order, the order
// of each user's first message in the window.
func (r *ActivityModel) CountsInWindow(
	ctx context.Context, guildID snowflake.ID, start, end time.Time,
) ([]types.UserCount, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]types.UserCount, error) {
		var rows []types.UserCount

		err := r.db.NewSelect().
			Model((*types.Message)(nil)).
			Column("user_id").
			ColumnExpr("COUNT(*) AS count").
			Where("guild_id = ?", guildID).
			Where("timestamp >= ?", start).
			Where("timestamp <= ?", end).
			Group("user_id").
			OrderExpr("MIN(timestamp) ASC").
			Scan(ctx, &rows)
		if err != nil {
			return nil, fmt.Errorf("failed to count messages in window: %w (guildID=%d)", err, guildID)
		}

		return rows, nil
	})
}

// CurrentCounts returns the live counters for a guild, oldest counter first.
func (r *ActivityModel) CurrentCounts(
	ctx context.Context, guildID snowflake.ID,
) ([]types.UserCount, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]types.UserCount, error) {
		var rows []types.UserCount

		err := r.db.NewSelect().
			Model((*types.ActivityCount)(nil)).
			Column("user_id", "count").
			Where("guild_id = ?", guildID).
			Where("count > 0").
			Order("updated_at ASC").
			Scan(ctx, &rows)
		if err != nil {
			return nil, fmt.Errorf("failed to get current counts: %w (guildID=%d)", err, guildID)
		}

		return rows, nil
	})
}

// UserCount returns the live counter for a single user, zero when the user
// has no row.
func (r *ActivityModel) UserCount(
	ctx context.Context, guildID, userID snowflake.ID,
) (uint64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (uint64, error) {
		var count uint64

		err := r.db.NewSelect().
			Model((*types.ActivityCount)(nil)).
			Column("count").
			Where("guild_id = ?", guildID).
			Where("user_id = ?", userID).
			Scan(ctx, &count)
		if err != nil {
			if isNoRows(err) {
				return 0, nil
			}
			return 0, fmt.Errorf("failed to get user count: %w (guildID=%d, userID=%d)", err, guildID, userID)
		}

		return count, nil
	})
}

// ResetCounts removes all live counters for a guild and returns the number of
// affected users.
func (r *ActivityModel) ResetCounts(ctx context.Context, guildID snowflake.ID) (int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		res, err := r.db.NewDelete().
			Model((*types.ActivityCount)(nil)).
			Where("guild_id = ?", guildID).
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to reset counts: %w (guildID=%d)", err, guildID)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get affected rows: %w (guildID=%d)", err, guildID)
		}

		r.logger.Debug("Reset message counts",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Int64("affected", affected))

		return affected, nil
	})
}

// PruneMessagesBefore deletes message log rows older than the cutoff across
// all guilds. Live counters are untouched.
func (r *ActivityModel) PruneMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		res, err := r.db.NewDelete().
			Model((*types.Message)(nil)).
			Where("timestamp < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to prune messages: %w (cutoff=%s)", err, cutoff)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get affected rows: %w", err)
		}

		return affected, nil
	})
}
