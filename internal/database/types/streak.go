package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/mofucat/chatrank/internal/database/types/enum"
)

// Streak records how many consecutive aggregation cycles a user has held the
// same tier. A reset sets the count to zero but keeps the last tier label;
// the label is only replaced when the user is next awarded a different tier.
type Streak struct {
	GuildID   snowflake.ID `bun:",pk"`
	UserID    snowflake.ID `bun:",pk"`
	Tier      enum.Tier    `bun:",notnull,default:0"`
	Count     uint32       `bun:",notnull,default:0"`
	UpdatedAt time.Time    `bun:",nullzero,notnull,default:current_timestamp"`
}

// AdvanceStreak applies the streak-or-reset rule to a stored record: holding
// the same tier again extends the run, anything else starts a new run of one.
// It is kept as a pure function so the transition table can be tested without
// a database.
func AdvanceStreak(current *Streak, tier enum.Tier) (enum.Tier, uint32) {
	if current != nil && current.Tier == tier {
		return tier, current.Count + 1
	}
	return tier, 1
}
