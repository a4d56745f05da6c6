package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/mofucat/chatrank/internal/database/models"
	"github.com/mofucat/chatrank/internal/database/types"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const (
	exclusionCacheKeyPrefix = "exclusions:guild:"
	exclusionCacheTTL       = 5 * time.Minute
)

// GuildService handles per-guild role configuration and the excluded role
// set. The exclusion set is cached because the aggregation engine consults it
// for every candidate member.
type GuildService struct {
	model  *models.RoleConfigModel
	cache  rueidis.Client
	logger *zap.Logger
}

// NewGuild creates a new guild service. The cache client may be nil.
func NewGuild(model *models.RoleConfigModel, cache rueidis.Client, logger *zap.Logger) *GuildService {
	return &GuildService{
		model:  model,
		cache:  cache,
		logger: logger.Named("guild_service"),
	}
}

// GetConfig retrieves the tier role configuration, nil when unset.
func (s *GuildService) GetConfig(ctx context.Context, guildID snowflake.ID) (*types.RoleConfig, error) {
	return s.model.GetConfig(ctx, guildID)
}

// SetConfig stores the tier role configuration.
func (s *GuildService) SetConfig(ctx context.Context, config *types.RoleConfig) error {
	return s.model.SetConfig(ctx, config)
}

// ExcludedRoles returns the guild's excluded role IDs as a set, served from
// cache when possible.
func (s *GuildService) ExcludedRoles(ctx context.Context, guildID snowflake.ID) (map[snowflake.ID]struct{}, error) {
	if s.cache != nil {
		key := exclusionCacheKey(guildID)

		cached, err := s.cache.Do(ctx, s.cache.B().Get().Key(key).Build()).AsBytes()
		if err == nil {
			var roleIDs []snowflake.ID
			if err := sonic.Unmarshal(cached, &roleIDs); err == nil {
				return toSet(roleIDs), nil
			}
		} else if !rueidis.IsRedisNil(err) {
			s.logger.Warn("Failed to read exclusion cache",
				zap.Uint64("guildID", uint64(guildID)),
				zap.Error(err))
		}
	}

	roleIDs, err := s.model.ListExclusions(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if encoded, err := sonic.Marshal(roleIDs); err == nil {
			key := exclusionCacheKey(guildID)

			err := s.cache.Do(ctx, s.cache.B().Set().Key(key).Value(string(encoded)).
				Ex(exclusionCacheTTL).Build()).Error()
			if err != nil {
				s.logger.Warn("Failed to write exclusion cache",
					zap.Uint64("guildID", uint64(guildID)),
					zap.Error(err))
			}
		}
	}

	return toSet(roleIDs), nil
}

// AddExclusion excludes a role and drops the cached set. Returns false when
// the role was already excluded.
func (s *GuildService) AddExclusion(ctx context.Context, guildID, roleID snowflake.ID) (bool, error) {
	added, err := s.model.AddExclusion(ctx, guildID, roleID)
	if err != nil {
		return false, err
	}

	if added {
		s.invalidate(ctx, guildID)
	}

	return added, nil
}

// RemoveExclusion clears a role exclusion and drops the cached set. Returns
// false when the role was not excluded.
func (s *GuildService) RemoveExclusion(ctx context.Context, guildID, roleID snowflake.ID) (bool, error) {
	removed, err := s.model.RemoveExclusion(ctx, guildID, roleID)
	if err != nil {
		return false, err
	}

	if removed {
		s.invalidate(ctx, guildID)
	}

	return removed, nil
}

// SaveRoleColor records a role's original color the first time it is
// customized. Later saves for the same role are ignored.
func (s *GuildService) SaveRoleColor(ctx context.Context, guildID, roleID snowflake.ID, color int) error {
	return s.model.SaveRoleColor(ctx, guildID, roleID, color)
}

// GetRoleColor returns the recorded original color for a role, nil when none
// was recorded.
func (s *GuildService) GetRoleColor(ctx context.Context, guildID, roleID snowflake.ID) (*types.RoleColor, error) {
	return s.model.GetRoleColor(ctx, guildID, roleID)
}

// DeleteRoleColor clears the recorded original color once it has been
// restored.
func (s *GuildService) DeleteRoleColor(ctx context.Context, guildID, roleID snowflake.ID) error {
	return s.model.DeleteRoleColor(ctx, guildID, roleID)
}

// ListExclusions returns the excluded role IDs in insertion order, bypassing
// the cache.
func (s *GuildService) ListExclusions(ctx context.Context, guildID snowflake.ID) ([]snowflake.ID, error) {
	return s.model.ListExclusions(ctx, guildID)
}

func (s *GuildService) invalidate(ctx context.Context, guildID snowflake.ID) {
	if s.cache == nil {
		return
	}

	key := exclusionCacheKey(guildID)

	if err := s.cache.Do(ctx, s.cache.B().Del().Key(key).Build()).Error(); err != nil {
		s.logger.Warn("Failed to invalidate exclusion cache",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Error(err))
	}
}

func exclusionCacheKey(guildID snowflake.ID) string {
	return exclusionCacheKeyPrefix + strconv.FormatUint(uint64(guildID), 10)
}

func toSet(roleIDs []snowflake.ID) map[snowflake.ID]struct{} {
	set := make(map[snowflake.ID]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		set[id] = struct{}{}
	}

	return set
}
