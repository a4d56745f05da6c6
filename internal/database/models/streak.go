package models

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/mofucat/chatrank/internal/database/dbretry"
	"github.com/mofucat/chatrank/internal/database/types"
	"github.com/mofucat/chatrank/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// StreakModel handles database operations for per-user tier streaks.
type StreakModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewStreak creates a StreakModel with database access.
func NewStreak(db *bun.DB, logger *zap.Logger) *StreakModel {
	return &StreakModel{
		db:     db,
		logger: logger.Named("db_streak"),
	}
}

// Get retrieves a user's streak. Users without a row get a zero record.
func (r *StreakModel) Get(ctx context.Context, guildID, userID snowflake.ID) (*types.Streak, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Streak, error) {
		streak := &types.Streak{
			GuildID: guildID,
			UserID:  userID,
			Tier:    enum.TierNone,
		}

		err := r.db.NewSelect().Model(streak).
			WherePK().
			Scan(ctx)
		if err != nil && !isNoRows(err) {
			return nil, fmt.Errorf("failed to get streak: %w (guildID=%d, userID=%d)", err, guildID, userID)
		}

		return streak, nil
	})
}

// Advance applies the streak-or-reset rule for a freshly awarded tier and
// stores the result. It returns the new streak length.
func (r *StreakModel) Advance(
	ctx context.Context, guildID, userID snowflake.ID, tier enum.Tier,
) (uint32, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (uint32, error) {
		current := &types.Streak{GuildID: guildID, UserID: userID}

		err := r.db.NewSelect().Model(current).
			WherePK().
			Scan(ctx)
		if err != nil {
			if !isNoRows(err) {
				return 0, fmt.Errorf("failed to get streak: %w (guildID=%d, userID=%d)", err, guildID, userID)
			}
			current = nil
		}

		newTier, newCount := types.AdvanceStreak(current, tier)

		streak := &types.Streak{
			GuildID:   guildID,
			UserID:    userID,
			Tier:      newTier,
			Count:     newCount,
			UpdatedAt: time.Now(),
		}

		_, err = r.db.NewInsert().Model(streak).
			On("CONFLICT (guild_id, user_id) DO UPDATE").
			Set("tier = EXCLUDED.tier").
			Set("count = EXCLUDED.count").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to advance streak: %w (guildID=%d, userID=%d)", err, guildID, userID)
		}

		return newCount, nil
	})
}

// ResetToZero zeroes a user's streak count while keeping the stored tier
// label. Users without a row are left without one.
func (r *StreakModel) ResetToZero(ctx context.Context, guildID, userID snowflake.ID) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewUpdate().
			Model((*types.Streak)(nil)).
			Set("count = 0").
			Set("updated_at = ?", time.Now()).
			Where("guild_id = ?", guildID).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to reset streak: %w (guildID=%d, userID=%d)", err, guildID, userID)
		}

		return nil
	})
}

// ResetAll zeroes every streak count in a guild and returns how many rows
// changed.
func (r *StreakModel) ResetAll(ctx context.Context, guildID snowflake.ID) (int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		res, err := r.db.NewUpdate().
			Model((*types.Streak)(nil)).
			Set("count = 0").
			Set("updated_at = ?", time.Now()).
			Where("guild_id = ?", guildID).
			Where("count > 0").
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to reset all streaks: %w (guildID=%d)", err, guildID)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get affected rows: %w", err)
		}

		r.logger.Debug("Reset all streaks",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Int64("affected", affected))

		return affected, nil
	})
}
