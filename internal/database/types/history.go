package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/mofucat/chatrank/internal/database/types/enum"
)

// RankedUser is one entry of an aggregation's final ranking.
type RankedUser struct {
	UserID snowflake.ID `json:"userId"`
	Count  uint64       `json:"count"`
	Rank   int          `json:"rank"`
	Tier   enum.Tier    `json:"tier"`
}

// AggregateHistory is the append-only audit record of one successful
// aggregation run. Rankings always hold the ranking as computed, even when
// some role grants failed mid-run.
type AggregateHistory struct {
	ID           int64        `bun:",pk,autoincrement"`
	GuildID      snowflake.ID `bun:",notnull"`
	AggregatedAt time.Time    `bun:",notnull"`
	WindowStart  time.Time    `bun:",notnull"`
	WindowEnd    time.Time    `bun:",notnull"`
	Rankings     []RankedUser `bun:",type:jsonb,notnull"`
}
