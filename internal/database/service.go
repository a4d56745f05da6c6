package database

import (
	"github.com/mofucat/chatrank/internal/database/service"
	"github.com/redis/rueidis"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	auth  *service.AuthService
	guild *service.GuildService
	level *service.LevelService
}

// NewService creates a new service instance with all services.
func NewService(db *bun.DB, repository *Repository, cache rueidis.Client, logger *zap.Logger) *Service {
	authModel := repository.Auth()
	roleConfigModel := repository.RoleConfig()
	levelModel := repository.Level()

	return &Service{
		auth:  service.NewAuth(authModel, cache, logger),
		guild: service.NewGuild(roleConfigModel, cache, logger),
		level: service.NewLevel(levelModel, logger),
	}
}

// Auth returns the auth service.
func (s *Service) Auth() *service.AuthService {
	return s.auth
}

// Guild returns the guild service.
func (s *Service) Guild() *service.GuildService {
	return s.guild
}

// Level returns the level service.
func (s *Service) Level() *service.LevelService {
	return s.level
}
