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

// AuthModel handles database operations for invite codes and guild
// authorization.
type AuthModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewAuth creates an AuthModel with database access.
func NewAuth(db *bun.DB, logger *zap.Logger) *AuthModel {
	return &AuthModel{
		db:     db,
		logger: logger.Named("db_auth"),
	}
}

// CreateCode stores a freshly generated invite code.
func (r *AuthModel) CreateCode(ctx context.Context, code string) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		record := &types.AuthCode{
			Code:      code,
			CreatedAt: time.Now(),
		}

		_, err := r.db.NewInsert().Model(record).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create auth code: %w", err)
		}

		return nil
	})
}

// ListCodes returns all invite codes, newest first.
func (r *AuthModel) ListCodes(ctx context.Context) ([]*types.AuthCode, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.AuthCode, error) {
		var codes []*types.AuthCode

		err := r.db.NewSelect().Model(&codes).
			Order("created_at DESC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list auth codes: %w", err)
		}

		return codes, nil
	})
}

// Redeem atomically marks an unused code as used and authorizes the guild.
// Returns false when the code is unknown or already spent.
func (r *AuthModel) Redeem(ctx context.Context, code string, guildID snowflake.ID) (bool, error) {
	var redeemed bool

	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now()

		res, err := tx.NewUpdate().
			Model((*types.AuthCode)(nil)).
			Set("used = TRUE").
			Set("used_by = ?", guildID).
			Set("used_at = ?", now).
			Where("code = ?", code).
			Where("used = FALSE").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark auth code used: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if affected == 0 {
			return nil
		}

		guild := &types.AuthorizedGuild{
			GuildID:      guildID,
			Code:         code,
			AuthorizedAt: now,
		}

		_, err = tx.NewInsert().Model(guild).
			On("CONFLICT (guild_id) DO UPDATE").
			Set("code = EXCLUDED.code").
			Set("authorized_at = EXCLUDED.authorized_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to authorize guild: %w (guildID=%d)", err, guildID)
		}

		redeemed = true

		return nil
	})
	if err != nil {
		return false, err
	}

	if redeemed {
		r.logger.Info("Guild authorized",
			zap.Uint64("guildID", uint64(guildID)))
	}

	return redeemed, nil
}

// IsAuthorized reports whether a guild has been unlocked with an invite code.
func (r *AuthModel) IsAuthorized(ctx context.Context, guildID snowflake.ID) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		exists, err := r.db.NewSelect().
			Model((*types.AuthorizedGuild)(nil)).
			Where("guild_id = ?", guildID).
			Exists(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to check guild authorization: %w (guildID=%d)", err, guildID)
		}

		return exists, nil
	})
}

// RevokeGuild removes a guild's authorization. Returns false when the guild
// was not authorized.
func (r *AuthModel) RevokeGuild(ctx context.Context, guildID snowflake.ID) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		res, err := r.db.NewDelete().
			Model((*types.AuthorizedGuild)(nil)).
			Where("guild_id = ?", guildID).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to revoke guild: %w (guildID=%d)", err, guildID)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to get affected rows: %w", err)
		}

		return affected > 0, nil
	})
}
