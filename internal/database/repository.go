package database

import (
	"github.com/mofucat/chatrank/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	activity   *models.ActivityModel
	roleConfig *models.RoleConfigModel
	streak     *models.StreakModel
	history    *models.HistoryModel
	auth       *models.AuthModel
	level      *models.LevelModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		activity:   models.NewActivity(db, logger),
		roleConfig: models.NewRoleConfig(db, logger),
		streak:     models.NewStreak(db, logger),
		history:    models.NewHistory(db, logger),
		auth:       models.NewAuth(db, logger),
		level:      models.NewLevel(db, logger),
	}
}

// Activity returns the activity model repository.
func (r *Repository) Activity() *models.ActivityModel {
	return r.activity
}

// RoleConfig returns the role config model repository.
func (r *Repository) RoleConfig() *models.RoleConfigModel {
	return r.roleConfig
}

// Streak returns the streak model repository.
func (r *Repository) Streak() *models.StreakModel {
	return r.streak
}

// History returns the history model repository.
func (r *Repository) History() *models.HistoryModel {
	return r.history
}

// Auth returns the auth model repository.
func (r *Repository) Auth() *models.AuthModel {
	return r.auth
}

// Level returns the level model repository.
func (r *Repository) Level() *models.LevelModel {
	return r.level
}
