package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// UserLevel stores a user's lifetime progression in a guild. XP accrues at a
// fixed rate per counted message and is never reset by aggregation cycles.
type UserLevel struct {
	GuildID       snowflake.ID `bun:",pk"`
	UserID        snowflake.ID `bun:",pk"`
	Level         int          `bun:",notnull,default:0"`
	XP            uint64       `bun:",notnull,default:0"`
	TotalMessages uint64       `bun:",notnull,default:0"`
	UpdatedAt     time.Time    `bun:",nullzero,notnull,default:current_timestamp"`
}

// LevelRole maps a level threshold to the role granted when a user reaches it.
type LevelRole struct {
	GuildID   snowflake.ID `bun:",pk"`
	Threshold int          `bun:",pk"`
	RoleID    snowflake.ID `bun:",notnull"`
}

// CardSettings holds a user's level-card background customization.
type CardSettings struct {
	GuildID   snowflake.ID `bun:",pk"`
	UserID    snowflake.ID `bun:",pk"`
	BGTop     string       `bun:",notnull,default:''"`
	BGBottom  string       `bun:",notnull,default:''"`
	UpdatedAt time.Time    `bun:",nullzero,notnull,default:current_timestamp"`
}
