package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// ActivityCount tracks how many messages a user has sent in a guild since the
// last successful aggregation. One row per (guild, user); the engine wipes all
// rows for a guild only after a run fully succeeds.
type ActivityCount struct {
	GuildID   snowflake.ID `bun:",pk"`
	UserID    snowflake.ID `bun:",pk"`
	Count     uint64       `bun:",notnull,default:0"`
	UpdatedAt time.Time    `bun:",nullzero,notnull,default:current_timestamp"`
}

// UserCount is one user's tally from a counting query. Slices of UserCount
// preserve encounter order, the order users first appeared in the underlying
// data, so that ranking ties break deterministically.
type UserCount struct {
	UserID snowflake.ID `bun:"user_id"`
	Count  uint64       `bun:"count"`
}

// Message is one row of the append-only message log. It exists solely to
// answer windowed count queries; the retention worker prunes old rows.
type Message struct {
	GuildID   snowflake.ID `bun:",pk"`
	MessageID snowflake.ID `bun:",pk"`
	UserID    snowflake.ID `bun:",notnull"`
	Timestamp time.Time    `bun:",notnull"`
}
