// Package service contains business logic built on top of the database models.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/mofucat/chatrank/internal/database/models"
	"github.com/mofucat/chatrank/internal/database/types"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const (
	// CodeLength is the length of generated invite codes.
	CodeLength = 16

	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	authCacheKeyPrefix = "auth:guild:"
	authCacheTTL       = 5 * time.Minute
)

// AuthService handles invite code redemption and the guild authorization
// gate. Authorization checks sit on the hot message path, so results are
// cached in Redis with a short TTL.
type AuthService struct {
	model  *models.AuthModel
	cache  rueidis.Client
	logger *zap.Logger
}

// NewAuth creates a new auth service. The cache client may be nil, in which
// case every check hits the database.
func NewAuth(model *models.AuthModel, cache rueidis.Client, logger *zap.Logger) *AuthService {
	return &AuthService{
		model:  model,
		cache:  cache,
		logger: logger.Named("auth_service"),
	}
}

// GenerateCode creates and stores a new single-use invite code.
func (s *AuthService) GenerateCode(ctx context.Context) (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}

	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	code := string(buf)

	if err := s.model.CreateCode(ctx, code); err != nil {
		return "", err
	}

	s.logger.Info("Generated invite code")

	return code, nil
}

// Redeem spends an invite code on a guild. Returns false when the code is
// unknown or already used.
func (s *AuthService) Redeem(ctx context.Context, code string, guildID snowflake.ID) (bool, error) {
	redeemed, err := s.model.Redeem(ctx, code, guildID)
	if err != nil {
		return false, err
	}

	if redeemed {
		s.invalidate(ctx, guildID)
	}

	return redeemed, nil
}

// IsAuthorized reports whether a guild has been unlocked. The result is
// served from cache when possible.
func (s *AuthService) IsAuthorized(ctx context.Context, guildID snowflake.ID) (bool, error) {
	if s.cache != nil {
		key := authCacheKey(guildID)

		cached, err := s.cache.Do(ctx, s.cache.B().Get().Key(key).Build()).ToString()
		if err == nil {
			return cached == "1", nil
		}
		if !rueidis.IsRedisNil(err) {
			s.logger.Warn("Failed to read authorization cache",
				zap.Uint64("guildID", uint64(guildID)),
				zap.Error(err))
		}
	}

	authorized, err := s.model.IsAuthorized(ctx, guildID)
	if err != nil {
		return false, err
	}

	if s.cache != nil {
		value := "0"
		if authorized {
			value = "1"
		}

		key := authCacheKey(guildID)

		err := s.cache.Do(ctx, s.cache.B().Set().Key(key).Value(value).
			Ex(authCacheTTL).Build()).Error()
		if err != nil {
			s.logger.Warn("Failed to write authorization cache",
				zap.Uint64("guildID", uint64(guildID)),
				zap.Error(err))
		}
	}

	return authorized, nil
}

// Revoke removes a guild's authorization and drops the cached flag.
func (s *AuthService) Revoke(ctx context.Context, guildID snowflake.ID) (bool, error) {
	revoked, err := s.model.RevokeGuild(ctx, guildID)
	if err != nil {
		return false, err
	}

	if revoked {
		s.invalidate(ctx, guildID)
	}

	return revoked, nil
}

// ListCodes returns all invite codes, newest first.
func (s *AuthService) ListCodes(ctx context.Context) ([]*types.AuthCode, error) {
	return s.model.ListCodes(ctx)
}

func (s *AuthService) invalidate(ctx context.Context, guildID snowflake.ID) {
	if s.cache == nil {
		return
	}

	key := authCacheKey(guildID)

	if err := s.cache.Do(ctx, s.cache.B().Del().Key(key).Build()).Error(); err != nil {
		s.logger.Warn("Failed to invalidate authorization cache",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Error(err))
	}
}

func authCacheKey(guildID snowflake.ID) string {
	return authCacheKeyPrefix + strconv.FormatUint(uint64(guildID), 10)
}
