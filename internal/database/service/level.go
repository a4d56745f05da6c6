package service

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/mofucat/chatrank/internal/database/models"
	"github.com/mofucat/chatrank/internal/database/types"
	"github.com/mofucat/chatrank/internal/level"
	"go.uber.org/zap"
)

// LevelService applies XP gains and resolves which threshold roles a user has
// newly earned.
type LevelService struct {
	model  *models.LevelModel
	logger *zap.Logger
}

// NewLevel creates a new level service.
func NewLevel(model *models.LevelModel, logger *zap.Logger) *LevelService {
	return &LevelService{
		model:  model,
		logger: logger.Named("level_service"),
	}
}

// LevelUp describes the outcome of an XP award that crossed a level boundary.
type LevelUp struct {
	NewLevel    int
	EarnedRoles []snowflake.ID // threshold roles crossed by this level-up
}

// AwardMessageXP credits one message's worth of XP to a user. It returns a
// non-nil LevelUp when the user crossed a level boundary.
func (s *LevelService) AwardMessageXP(
	ctx context.Context, guildID, userID snowflake.ID,
) (*LevelUp, error) {
	record, err := s.model.Get(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}

	record.XP += level.XPPerMessage
	record.TotalMessages++

	newLevel := level.LevelForXP(record.XP)
	leveledUp := newLevel > record.Level
	oldLevel := record.Level
	record.Level = newLevel

	if err := s.model.Save(ctx, record); err != nil {
		return nil, err
	}

	if !leveledUp {
		return nil, nil
	}

	mappings, err := s.model.LevelRoles(ctx, guildID)
	if err != nil {
		return nil, err
	}

	var earned []snowflake.ID
	for _, mapping := range mappings {
		if mapping.Threshold > oldLevel && mapping.Threshold <= newLevel {
			earned = append(earned, mapping.RoleID)
		}
	}

	s.logger.Debug("User leveled up",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("userID", uint64(userID)),
		zap.Int("level", newLevel))

	return &LevelUp{NewLevel: newLevel, EarnedRoles: earned}, nil
}

// Profile returns a user's progression record together with the computed
// progress toward the next level.
func (s *LevelService) Profile(
	ctx context.Context, guildID, userID snowflake.ID,
) (*types.UserLevel, level.Progress, error) {
	record, err := s.model.Get(ctx, guildID, userID)
	if err != nil {
		return nil, level.Progress{}, err
	}

	return record, level.ProgressForXP(record.XP), nil
}
