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

// RoleConfigModel handles database operations for tier role configuration,
// role exclusions, and saved role colors.
type RoleConfigModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewRoleConfig creates a RoleConfigModel with database access.
func NewRoleConfig(db *bun.DB, logger *zap.Logger) *RoleConfigModel {
	return &RoleConfigModel{
		db:     db,
		logger: logger.Named("db_role_config"),
	}
}

// GetConfig retrieves the tier role configuration for a guild, nil when the
// guild has none.
func (r *RoleConfigModel) GetConfig(ctx context.Context, guildID snowflake.ID) (*types.RoleConfig, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.RoleConfig, error) {
		config := &types.RoleConfig{GuildID: guildID}

		err := r.db.NewSelect().Model(config).
			WherePK().
			Scan(ctx)
		if err != nil {
			if isNoRows(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to get role config: %w (guildID=%d)", err, guildID)
		}

		return config, nil
	})
}

// SetConfig stores or replaces the tier role configuration for a guild.
func (r *RoleConfigModel) SetConfig(ctx context.Context, config *types.RoleConfig) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		config.UpdatedAt = time.Now()

		_, err := r.db.NewInsert().Model(config).
			On("CONFLICT (guild_id) DO UPDATE").
			Set("first_role_id = EXCLUDED.first_role_id").
			Set("other_role_id = EXCLUDED.other_role_id").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to set role config: %w (guildID=%d)", err, config.GuildID)
		}

		return nil
	})
}

// AddExclusion marks a role as excluded from aggregation. Returns false when
// the role was already excluded.
func (r *RoleConfigModel) AddExclusion(ctx context.Context, guildID, roleID snowflake.ID) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		excluded := &types.ExcludedRole{
			GuildID:   guildID,
			RoleID:    roleID,
			UpdatedAt: time.Now(),
		}

		res, err := r.db.NewInsert().Model(excluded).
			On("CONFLICT (guild_id, role_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to add role exclusion: %w (guildID=%d, roleID=%d)", err, guildID, roleID)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to get affected rows: %w", err)
		}

		return affected > 0, nil
	})
}

// RemoveExclusion clears a role exclusion. Returns false when the role was
// not excluded.
func (r *RoleConfigModel) RemoveExclusion(ctx context.Context, guildID, roleID snowflake.ID) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		res, err := r.db.NewDelete().
			Model((*types.ExcludedRole)(nil)).
			Where("guild_id = ?", guildID).
			Where("role_id = ?", roleID).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to remove role exclusion: %w (guildID=%d, roleID=%d)", err, guildID, roleID)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to get affected rows: %w", err)
		}

		return affected > 0, nil
	})
}

// ListExclusions returns the excluded role IDs for a guild.
func (r *RoleConfigModel) ListExclusions(ctx context.Context, guildID snowflake.ID) ([]snowflake.ID, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]snowflake.ID, error) {
		var rows []types.ExcludedRole

		err := r.db.NewSelect().Model(&rows).
			Where("guild_id = ?", guildID).
			Order("updated_at ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list role exclusions: %w (guildID=%d)", err, guildID)
		}

		roleIDs := make([]snowflake.ID, len(rows))
		for i, row := range rows {
			roleIDs[i] = row.RoleID
		}

		return roleIDs, nil
	})
}

// SaveRoleColor stores the original color of a role so it can be restored
// later. An existing entry is left untouched to preserve the oldest color.
func (r *RoleConfigModel) SaveRoleColor(ctx context.Context, guildID, roleID snowflake.ID, color int) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		saved := &types.RoleColor{
			GuildID:       guildID,
			RoleID:        roleID,
			OriginalColor: color,
			UpdatedAt:     time.Now(),
		}

		_, err := r.db.NewInsert().Model(saved).
			On("CONFLICT (guild_id, role_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to save role color: %w (guildID=%d, roleID=%d)", err, guildID, roleID)
		}

		return nil
	})
}

// GetRoleColor returns the saved original color for a role, nil when none was
// saved.
func (r *RoleConfigModel) GetRoleColor(ctx context.Context, guildID, roleID snowflake.ID) (*types.RoleColor, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.RoleColor, error) {
		saved := &types.RoleColor{GuildID: guildID, RoleID: roleID}

		err := r.db.NewSelect().Model(saved).
			WherePK().
			Scan(ctx)
		if err != nil {
			if isNoRows(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to get role color: %w (guildID=%d, roleID=%d)", err, guildID, roleID)
		}

		return saved, nil
	})
}

// DeleteRoleColor removes a saved role color after it has been restored.
func (r *RoleConfigModel) DeleteRoleColor(ctx context.Context, guildID, roleID snowflake.ID) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewDelete().
			Model((*types.RoleColor)(nil)).
			Where("guild_id = ?", guildID).
			Where("role_id = ?", roleID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete role color: %w (guildID=%d, roleID=%d)", err, guildID, roleID)
		}

		return nil
	})
}
