// Package aggregation implements the ranking engine: it converts a window of
// counted messages into a top-6 ranking, reassigns the two tier roles,
// advances streaks, and records an audit snapshot.
package aggregation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/mofucat/chatrank/internal/database/types"
	"github.com/mofucat/chatrank/internal/database/types/enum"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// TopCount is the number of users awarded a tier role per cycle: one "first"
// and up to five "other".
const TopCount = 6

const revokeConcurrency = 4

// ActivityStore provides the counting queries and the post-run reset.
type ActivityStore interface {
	CountsInWindow(ctx context.Context, guildID snowflake.ID, start, end time.Time) ([]types.UserCount, error)
	CurrentCounts(ctx context.Context, guildID snowflake.ID) ([]types.UserCount, error)
	ResetCounts(ctx context.Context, guildID snowflake.ID) (int64, error)
}

// GuildStore provides role configuration, exclusions, and role color memory.
type GuildStore interface {
	GetConfig(ctx context.Context, guildID snowflake.ID) (*types.RoleConfig, error)
	ExcludedRoles(ctx context.Context, guildID snowflake.ID) (map[snowflake.ID]struct{}, error)
	GetRoleColor(ctx context.Context, guildID, roleID snowflake.ID) (*types.RoleColor, error)
	DeleteRoleColor(ctx context.Context, guildID, roleID snowflake.ID) error
}

// StreakStore provides streak transitions.
type StreakStore interface {
	Advance(ctx context.Context, guildID, userID snowflake.ID, tier enum.Tier) (uint32, error)
	ResetToZero(ctx context.Context, guildID, userID snowflake.ID) error
}

// HistoryStore provides the aggregation audit log.
type HistoryStore interface {
	Append(ctx context.Context, record *types.AggregateHistory) error
	Latest(ctx context.Context, guildID snowflake.ID) (*types.AggregateHistory, error)
}

// RenderEntry is one ranked user prepared for rendering.
type RenderEntry struct {
	UserID    snowflake.ID
	Username  string
	AvatarURL string
	Count     uint64
	Rank      int
	Tier      enum.Tier
	Streak    uint32
}

// RenderData is everything the card renderer needs for a ranking card.
type RenderData struct {
	GuildName string
	Entries   []RenderEntry
	Window    Window
}

// Renderer turns a computed ranking into image bytes.
type Renderer interface {
	RenderRanking(ctx context.Context, data RenderData) ([]byte, error)
}

// Result is the outcome of a successful run.
type Result struct {
	Rankings []types.RankedUser
	Entries  []RenderEntry
	Image    []byte
	Window   Window
	// SkippedMembers counts role mutations that failed and were skipped.
	// Zero means a clean run.
	SkippedMembers int
}

// Engine executes aggregation runs. Runs for different guilds proceed
// independently; at most one run per guild is in flight at a time.
type Engine struct {
	activity ActivityStore
	guilds   GuildStore
	streaks  StreakStore
	history  HistoryStore
	roles    RoleManager
	renderer Renderer
	logger   *zap.Logger

	mu      sync.Mutex
	running map[snowflake.ID]struct{}
}

// NewEngine creates an aggregation engine.
func NewEngine(
	activity ActivityStore, guilds GuildStore, streaks StreakStore, history HistoryStore,
	roles RoleManager, renderer Renderer, logger *zap.Logger,
) *Engine {
	return &Engine{
		activity: activity,
		guilds:   guilds,
		streaks:  streaks,
		history:  history,
		roles:    roles,
		renderer: renderer,
		logger:   logger.Named("aggregation"),
		running:  make(map[snowflake.ID]struct{}),
	}
}

// LatestHistory returns the most recent aggregation record for a guild, used
// to resolve "since last" windows.
func (e *Engine) LatestHistory(ctx context.Context, guildID snowflake.ID) (*types.AggregateHistory, error) {
	return e.history.Latest(ctx, guildID)
}

// Run executes one aggregation cycle for a guild over the given window.
// Precondition failures abort with no side effects. After the first role
// mutation there is no rollback: a render failure leaves roles assigned but
// preserves the counters so the run can be retried.
func (e *Engine) Run(ctx context.Context, guildID snowflake.ID, guildName string, window Window) (*Result, error) {
	if !e.tryAcquire(guildID) {
		return nil, fmt.Errorf("%w (guildID=%d)", ErrRunInProgress, guildID)
	}
	defer e.release(guildID)

	// Step 1: preconditions.
	config, err := e.guilds.GetConfig(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if config == nil {
		return nil, fmt.Errorf("%w (guildID=%d)", ErrConfigMissing, guildID)
	}

	for _, roleID := range []snowflake.ID{config.FirstRoleID, config.OtherRoleID} {
		exists, err := e.roles.RoleExists(ctx, guildID, roleID)
		if err != nil {
			return nil, err
		}

		if !exists {
			return nil, fmt.Errorf("%w (guildID=%d, roleID=%d)", ErrRoleNotFound, guildID, roleID)
		}
	}

	// Step 2: window validation.
	if !window.Live && window.Start.After(window.End) {
		return nil, fmt.Errorf("%w (guildID=%d)", ErrInvalidWindow, guildID)
	}

	// Step 3: count retrieval.
	counts, err := e.fetchCounts(ctx, guildID, window)
	if err != nil {
		return nil, err
	}

	if len(counts) == 0 {
		return nil, fmt.Errorf("%w (guildID=%d)", ErrNoActivity, guildID)
	}

	// Step 4: exclusion filter.
	members, err := e.roles.Members(ctx, guildID)
	if err != nil {
		return nil, err
	}

	excluded, err := e.guilds.ExcludedRoles(ctx, guildID)
	if err != nil {
		return nil, err
	}

	memberIndex := make(map[snowflake.ID]Member, len(members))
	for _, member := range members {
		memberIndex[member.UserID] = member
	}

	eligible := filterEligible(counts, memberIndex, excluded)

	// Step 5: ranking.
	ranked := Rank(eligible, TopCount)
	if len(ranked) == 0 {
		return nil, fmt.Errorf("%w (guildID=%d)", ErrNoEligibleUsers, guildID)
	}

	e.logger.Info("Computed ranking",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Int("candidates", len(counts)),
		zap.Int("eligible", len(eligible)),
		zap.Int("ranked", len(ranked)))

	// Past this point the run mutates external state and must attempt to
	// finish the history write and counter reset even if the caller goes
	// away.
	ctx = context.WithoutCancel(ctx)

	rankedSet := make(map[snowflake.ID]struct{}, len(ranked))
	for _, entry := range ranked {
		rankedSet[entry.UserID] = struct{}{}
	}

	holders := tierHolders(members, config.FirstRoleID, config.OtherRoleID)

	// Step 6: demoted holders lose their streak before any role changes, so
	// the "currently holds a tier role" state is still accurate.
	for _, holder := range holders {
		if _, kept := rankedSet[holder.UserID]; kept {
			continue
		}

		if err := e.streaks.ResetToZero(ctx, guildID, holder.UserID); err != nil {
			return nil, err
		}
	}

	// Step 7: blanket revocation over every current holder, not just the
	// outgoing top six, so no stale tier role survives. Per-member failures
	// are logged and skipped.
	skipped := e.revokeAll(ctx, guildID, holders, config)

	// Step 8: restore the first role's original color if one was recorded.
	if err := e.restoreFirstRoleColor(ctx, guildID, config.FirstRoleID); err != nil {
		e.logger.Warn("Failed to restore first role color",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Error(err))
	}

	// Step 9: grants and streak advances in rank order.
	entries := make([]RenderEntry, 0, len(ranked))
	rankings := make([]types.RankedUser, 0, len(ranked))

	for _, user := range ranked {
		roleID := config.FirstRoleID
		if user.Tier == enum.TierOther {
			roleID = config.OtherRoleID
		}

		var streakCount uint32

		if err := e.roles.AddRole(ctx, guildID, user.UserID, roleID); err != nil {
			skipped++

			e.logger.Warn("Failed to grant tier role, skipping member",
				zap.Uint64("guildID", uint64(guildID)),
				zap.Uint64("userID", uint64(user.UserID)),
				zap.Error(err))
		} else {
			streakCount, err = e.streaks.Advance(ctx, guildID, user.UserID, user.Tier)
			if err != nil {
				return nil, err
			}
		}

		member := memberIndex[user.UserID]
		entries = append(entries, RenderEntry{
			UserID:    user.UserID,
			Username:  member.Username,
			AvatarURL: member.AvatarURL,
			Count:     user.Count,
			Rank:      user.Rank,
			Tier:      user.Tier,
			Streak:    streakCount,
		})
		rankings = append(rankings, user)
	}

	// Step 10: the audit record captures the ranking as computed, even when
	// some grants failed.
	now := time.Now()
	record := &types.AggregateHistory{
		GuildID:      guildID,
		AggregatedAt: now,
		WindowStart:  window.Start,
		WindowEnd:    window.End,
		Rankings:     rankings,
	}

	if err := e.history.Append(ctx, record); err != nil {
		return nil, err
	}

	// Render before the counter reset: a failed render must leave the
	// counters untouched so the run can be retried without losing a period
	// of activity.
	image, err := e.renderer.RenderRanking(ctx, RenderData{
		GuildName: guildName,
		Entries:   entries,
		Window:    window,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w (guildID=%d)", ErrRenderFailure, err, guildID)
	}

	// Step 11: counter reset, the single irreversible store mutation.
	if _, err := e.activity.ResetCounts(ctx, guildID); err != nil {
		return nil, err
	}

	e.logger.Info("Aggregation run complete",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Int("ranked", len(rankings)),
		zap.Int("skippedMembers", skipped))

	return &Result{
		Rankings:       rankings,
		Entries:        entries,
		Image:          image,
		Window:         window,
		SkippedMembers: skipped,
	}, nil
}

func (e *Engine) fetchCounts(ctx context.Context, guildID snowflake.ID, window Window) ([]types.UserCount, error) {
	if window.Live {
		return e.activity.CurrentCounts(ctx, guildID)
	}

	return e.activity.CountsInWindow(ctx, guildID, window.Start, window.End)
}

func (e *Engine) revokeAll(ctx context.Context, guildID snowflake.ID, holders []Member, config *types.RoleConfig) int {
	var (
		mu      sync.Mutex
		skipped int
	)

	p := pool.New().WithMaxGoroutines(revokeConcurrency)

	for _, holder := range holders {
		p.Go(func() {
			failed := false

			for _, roleID := range []snowflake.ID{config.FirstRoleID, config.OtherRoleID} {
				if !holder.HasRole(roleID) {
					continue
				}

				if err := e.roles.RemoveRole(ctx, guildID, holder.UserID, roleID); err != nil {
					failed = true

					e.logger.Warn("Failed to revoke tier role, skipping member",
						zap.Uint64("guildID", uint64(guildID)),
						zap.Uint64("userID", uint64(holder.UserID)),
						zap.Uint64("roleID", uint64(roleID)),
						zap.Error(err))
				}
			}

			if failed {
				mu.Lock()
				skipped++
				mu.Unlock()
			}
		})
	}

	p.Wait()

	return skipped
}

func (e *Engine) restoreFirstRoleColor(ctx context.Context, guildID, firstRoleID snowflake.ID) error {
	saved, err := e.guilds.GetRoleColor(ctx, guildID, firstRoleID)
	if err != nil {
		return err
	}

	if saved == nil {
		return nil
	}

	if err := e.roles.SetRoleColor(ctx, guildID, firstRoleID, saved.OriginalColor); err != nil {
		return err
	}

	// The restore is one-shot: the next customization records a fresh
	// baseline.
	return e.guilds.DeleteRoleColor(ctx, guildID, firstRoleID)
}

func (e *Engine) tryAcquire(guildID snowflake.ID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, inFlight := e.running[guildID]; inFlight {
		return false
	}

	e.running[guildID] = struct{}{}

	return true
}

func (e *Engine) release(guildID snowflake.ID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.running, guildID)
}

// tierHolders returns the members currently holding either tier role.
func tierHolders(members []Member, firstRoleID, otherRoleID snowflake.ID) []Member {
	var holders []Member

	for _, member := range members {
		if member.HasRole(firstRoleID) || member.HasRole(otherRoleID) {
			holders = append(holders, member)
		}
	}

	return holders
}

// filterEligible drops users who left the guild or hold an excluded role,
// preserving encounter order.
func filterEligible(
	counts []types.UserCount, members map[snowflake.ID]Member, excluded map[snowflake.ID]struct{},
) []types.UserCount {
	eligible := make([]types.UserCount, 0, len(counts))

	for _, count := range counts {
		member, present := members[count.UserID]
		if !present {
			// Left the guild since the window; not an error.
			continue
		}

		if holdsExcluded(member, excluded) {
			continue
		}

		eligible = append(eligible, count)
	}

	return eligible
}

func holdsExcluded(member Member, excluded map[snowflake.ID]struct{}) bool {
	for _, roleID := range member.RoleIDs {
		if _, ok := excluded[roleID]; ok {
			return true
		}
	}

	return false
}

// Rank sorts counts descending with a stable tie-break on encounter order and
// truncates to the top n, assigning ranks and tiers. Rank 1 gets the "first"
// tier, everyone else "other".
func Rank(counts []types.UserCount, n int) []types.RankedUser {
	sorted := make([]types.UserCount, len(counts))
	copy(sorted, counts)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}

	ranked := make([]types.RankedUser, len(sorted))
	for i, count := range sorted {
		tier := enum.TierOther
		if i == 0 {
			tier = enum.TierFirst
		}

		ranked[i] = types.RankedUser{
			UserID: count.UserID,
			Count:  count.Count,
			Rank:   i + 1,
			Tier:   tier,
		}
	}

	return ranked
}
