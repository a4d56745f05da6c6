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

// LevelModel handles database operations for user progression, level role
// thresholds, and level card settings.
type LevelModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewLevel creates a LevelModel with database access.
func NewLevel(db *bun.DB, logger *zap.Logger) *LevelModel {
	return &LevelModel{
		db:     db,
		logger: logger.Named("db_level"),
	}
}

// Get retrieves a user's progression record. Users without a row get a zero
// record.
func (r *LevelModel) Get(ctx context.Context, guildID, userID snowflake.ID) (*types.UserLevel, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.UserLevel, error) {
		level := &types.UserLevel{
			GuildID: guildID,
			UserID:  userID,
		}

		err := r.db.NewSelect().Model(level).
			WherePK().
			Scan(ctx)
		if err != nil && !isNoRows(err) {
			return nil, fmt.Errorf("failed to get user level: %w (guildID=%d, userID=%d)", err, guildID, userID)
		}

		return level, nil
	})
}

// Save stores a user's progression record.
func (r *LevelModel) Save(ctx context.Context, level *types.UserLevel) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		level.UpdatedAt = time.Now()

		_, err := r.db.NewInsert().Model(level).
			On("CONFLICT (guild_id, user_id) DO UPDATE").
			Set("level = EXCLUDED.level").
			Set("xp = EXCLUDED.xp").
			Set("total_messages = EXCLUDED.total_messages").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to save user level: %w (guildID=%d, userID=%d)", err, level.GuildID, level.UserID)
		}

		return nil
	})
}

// TopLevels returns the highest-XP users in a guild.
func (r *LevelModel) TopLevels(
	ctx context.Context, guildID snowflake.ID, limit int,
) ([]*types.UserLevel, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.UserLevel, error) {
		var levels []*types.UserLevel

		err := r.db.NewSelect().Model(&levels).
			Where("guild_id = ?", guildID).
			Order("xp DESC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get top levels: %w (guildID=%d)", err, guildID)
		}

		return levels, nil
	})
}

// SetLevelRole maps a level threshold to a role for a guild.
func (r *LevelModel) SetLevelRole(ctx context.Context, guildID snowflake.ID, threshold int, roleID snowflake.ID) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		mapping := &types.LevelRole{
			GuildID:   guildID,
			Threshold: threshold,
			RoleID:    roleID,
		}

		_, err := r.db.NewInsert().Model(mapping).
			On("CONFLICT (guild_id, threshold) DO UPDATE").
			Set("role_id = EXCLUDED.role_id").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to set level role: %w (guildID=%d, threshold=%d)", err, guildID, threshold)
		}

		return nil
	})
}

// LevelRoles returns the threshold-to-role mappings for a guild in ascending
// threshold order.
func (r *LevelModel) LevelRoles(ctx context.Context, guildID snowflake.ID) ([]*types.LevelRole, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.LevelRole, error) {
		var mappings []*types.LevelRole

		err := r.db.NewSelect().Model(&mappings).
			Where("guild_id = ?", guildID).
			Order("threshold ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get level roles: %w (guildID=%d)", err, guildID)
		}

		return mappings, nil
	})
}

// GetCardSettings retrieves a user's level card customization, defaults when
// none is stored.
func (r *LevelModel) GetCardSettings(ctx context.Context, guildID, userID snowflake.ID) (*types.CardSettings, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.CardSettings, error) {
		settings := &types.CardSettings{
			GuildID: guildID,
			UserID:  userID,
		}

		err := r.db.NewSelect().Model(settings).
			WherePK().
			Scan(ctx)
		if err != nil && !isNoRows(err) {
			return nil, fmt.Errorf("failed to get card settings: %w (guildID=%d, userID=%d)", err, guildID, userID)
		}

		return settings, nil
	})
}

// SaveCardSettings stores a user's level card customization.
func (r *LevelModel) SaveCardSettings(ctx context.Context, settings *types.CardSettings) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		settings.UpdatedAt = time.Now()

		_, err := r.db.NewInsert().Model(settings).
			On("CONFLICT (guild_id, user_id) DO UPDATE").
			Set("bg_top = EXCLUDED.bg_top").
			Set("bg_bottom = EXCLUDED.bg_bottom").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to save card settings: %w (guildID=%d, userID=%d)",
				err, settings.GuildID, settings.UserID)
		}

		return nil
	})
}
