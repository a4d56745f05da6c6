package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// RoleConfig maps a guild to its two tier roles. Both roles must be set before
// an aggregation run can proceed.
type RoleConfig struct {
	GuildID     snowflake.ID `bun:",pk"`
	FirstRoleID snowflake.ID `bun:",notnull"`
	OtherRoleID snowflake.ID `bun:",notnull"`
	UpdatedAt   time.Time    `bun:",nullzero,notnull,default:current_timestamp"`
}

// ExcludedRole marks a role whose holders are opted out of ranking. Set
// semantics come from the composite primary key.
type ExcludedRole struct {
	GuildID   snowflake.ID `bun:",pk"`
	RoleID    snowflake.ID `bun:",pk"`
	UpdatedAt time.Time    `bun:",nullzero,notnull,default:current_timestamp"`
}

// RoleColor remembers a role's original color from before the first admin
// customization, so the engine can restore it ahead of each re-grant.
type RoleColor struct {
	GuildID       snowflake.ID `bun:",pk"`
	RoleID        snowflake.ID `bun:",pk"`
	OriginalColor int          `bun:",notnull"`
	UpdatedAt     time.Time    `bun:",nullzero,notnull,default:current_timestamp"`
}
