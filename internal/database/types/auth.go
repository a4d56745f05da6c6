package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// AuthCode is a single-use invite code. Redeeming it marks it used and
// authorizes exactly one guild.
type AuthCode struct {
	Code      string        `bun:",pk"`
	CreatedAt time.Time     `bun:",nullzero,notnull,default:current_timestamp"`
	Used      bool          `bun:",notnull,default:false"`
	UsedBy    *snowflake.ID `bun:",nullzero"`
	UsedAt    *time.Time    `bun:",nullzero"`
}

// AuthorizedGuild exists iff the guild has been unlocked with an invite code.
type AuthorizedGuild struct {
	GuildID      snowflake.ID `bun:",pk"`
	Code         string       `bun:",notnull"`
	AuthorizedAt time.Time    `bun:",nullzero,notnull,default:current_timestamp"`
}
