package aggregation

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// Member is the slice of guild-member state the engine needs.
type Member struct {
	UserID    snowflake.ID
	Username  string
	AvatarURL string
	RoleIDs   []snowflake.ID
}

// HasRole reports whether the member holds the given role.
func (m Member) HasRole(roleID snowflake.ID) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}

	return false
}

// RoleManager abstracts the guild membership system the engine mutates. The
// production implementation talks to the Discord REST API.
type RoleManager interface {
	// RoleExists reports whether a role still exists in the guild.
	RoleExists(ctx context.Context, guildID, roleID snowflake.ID) (bool, error)
	// Members lists every member of the guild with their current roles.
	Members(ctx context.Context, guildID snowflake.ID) ([]Member, error)
	// AddRole grants a role to a member.
	AddRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error
	// RemoveRole revokes a role from a member.
	RemoveRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error
	// SetRoleColor updates a role's display color.
	SetRoleColor(ctx context.Context, guildID, roleID snowflake.ID, color int) error
}

const memberPageSize = 1000

// DiscordRoleManager implements RoleManager over the Discord REST API.
type DiscordRoleManager struct {
	rest   rest.Rest
	logger *zap.Logger
}

// NewDiscordRoleManager creates a RoleManager backed by a disgo REST client.
func NewDiscordRoleManager(rest rest.Rest, logger *zap.Logger) *DiscordRoleManager {
	return &DiscordRoleManager{
		rest:   rest,
		logger: logger.Named("role_manager"),
	}
}

// RoleExists reports whether a role still exists in the guild.
func (m *DiscordRoleManager) RoleExists(ctx context.Context, guildID, roleID snowflake.ID) (bool, error) {
	roles, err := m.rest.GetRoles(guildID, rest.WithCtx(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to fetch guild roles: %w (guildID=%d)", err, guildID)
	}

	for _, role := range roles {
		if role.ID == roleID {
			return true, nil
		}
	}

	return false, nil
}

// Members pages through the full guild member list.
func (m *DiscordRoleManager) Members(ctx context.Context, guildID snowflake.ID) ([]Member, error) {
	var (
		members []Member
		after   snowflake.ID
	)

	for {
		page, err := m.rest.GetMembers(guildID, memberPageSize, after, rest.WithCtx(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch guild members: %w (guildID=%d)", err, guildID)
		}

		for _, member := range page {
			members = append(members, Member{
				UserID:    member.User.ID,
				Username:  member.EffectiveName(),
				AvatarURL: member.EffectiveAvatarURL(),
				RoleIDs:   member.RoleIDs,
			})

			if member.User.ID > after {
				after = member.User.ID
			}
		}

		if len(page) < memberPageSize {
			return members, nil
		}
	}
}

// AddRole grants a role to a member.
func (m *DiscordRoleManager) AddRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error {
	if err := m.rest.AddMemberRole(guildID, userID, roleID, rest.WithCtx(ctx)); err != nil {
		return fmt.Errorf("failed to add role: %w (guildID=%d, userID=%d, roleID=%d)", err, guildID, userID, roleID)
	}

	return nil
}

// RemoveRole revokes a role from a member.
func (m *DiscordRoleManager) RemoveRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error {
	if err := m.rest.RemoveMemberRole(guildID, userID, roleID, rest.WithCtx(ctx)); err != nil {
		return fmt.Errorf("failed to remove role: %w (guildID=%d, userID=%d, roleID=%d)", err, guildID, userID, roleID)
	}

	return nil
}

// SetRoleColor updates a role's display color.
func (m *DiscordRoleManager) SetRoleColor(ctx context.Context, guildID, roleID snowflake.ID, color int) error {
	_, err := m.rest.UpdateRole(guildID, roleID, discord.RoleUpdate{
		Color: &color,
	}, rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to update role color: %w (guildID=%d, roleID=%d)", err, guildID, roleID)
	}

	return nil
}
