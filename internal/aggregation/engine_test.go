package aggregation_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/mofucat/chatrank/internal/aggregation"
	"github.com/mofucat/chatrank/internal/database/types"
	"github.com/mofucat/chatrank/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testGuild   snowflake.ID = 100
	firstRoleID snowflake.ID = 1
	otherRoleID snowflake.ID = 2
)

type fakeActivity struct {
	counts []types.UserCount
	resets int
}

func (f *fakeActivity) CountsInWindow(_ context.Context, _ snowflake.ID, _, _ time.Time) ([]types.UserCount, error) {
	return f.counts, nil
}

func (f *fakeActivity) CurrentCounts(_ context.Context, _ snowflake.ID) ([]types.UserCount, error) {
	return f.counts, nil
}

func (f *fakeActivity) ResetCounts(_ context.Context, _ snowflake.ID) (int64, error) {
	f.resets++
	return int64(len(f.counts)), nil
}

type fakeGuilds struct {
	config       *types.RoleConfig
	excluded     map[snowflake.ID]struct{}
	roleColor    *types.RoleColor
	colorDeletes int
}

func (f *fakeGuilds) GetConfig(_ context.Context, _ snowflake.ID) (*types.RoleConfig, error) {
	return f.config, nil
}

func (f *fakeGuilds) ExcludedRoles(_ context.Context, _ snowflake.ID) (map[snowflake.ID]struct{}, error) {
	if f.excluded == nil {
		return map[snowflake.ID]struct{}{}, nil
	}

	return f.excluded, nil
}

func (f *fakeGuilds) GetRoleColor(_ context.Context, _, _ snowflake.ID) (*types.RoleColor, error) {
	return f.roleColor, nil
}

func (f *fakeGuilds) DeleteRoleColor(_ context.Context, _, _ snowflake.ID) error {
	f.colorDeletes++
	f.roleColor = nil

	return nil
}

type fakeStreaks struct {
	mu      sync.Mutex
	records map[snowflake.ID]*types.Streak
	resets  []snowflake.ID
}

func newFakeStreaks() *fakeStreaks {
	return &fakeStreaks{records: make(map[snowflake.ID]*types.Streak)}
}

func (f *fakeStreaks) Advance(_ context.Context, guildID, userID snowflake.ID, tier enum.Tier) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, ok := f.records[userID]
	if !ok {
		current = &types.Streak{GuildID: guildID, UserID: userID, Tier: enum.TierNone}
	}

	newTier, newCount := types.AdvanceStreak(current, tier)
	f.records[userID] = &types.Streak{GuildID: guildID, UserID: userID, Tier: newTier, Count: newCount}

	return newCount, nil
}

func (f *fakeStreaks) ResetToZero(_ context.Context, _, userID snowflake.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resets = append(f.resets, userID)

	if record, ok := f.records[userID]; ok {
		record.Count = 0
	}

	return nil
}

type fakeHistory struct {
	records []*types.AggregateHistory
}

func (f *fakeHistory) Append(_ context.Context, record *types.AggregateHistory) error {
	f.records = append(f.records, record)
	return nil
}

func (f *fakeHistory) Latest(_ context.Context, _ snowflake.ID) (*types.AggregateHistory, error) {
	if len(f.records) == 0 {
		return nil, nil
	}

	return f.records[len(f.records)-1], nil
}

type roleOp struct {
	userID snowflake.ID
	roleID snowflake.ID
}

type fakeRoles struct {
	mu      sync.Mutex
	members []aggregation.Member
	added   []roleOp
	removed []roleOp
	colors  []int

	failRemoveFor map[snowflake.ID]struct{}
	failAddFor    map[snowflake.ID]struct{}
}

func (f *fakeRoles) RoleExists(_ context.Context, _, roleID snowflake.ID) (bool, error) {
	return roleID == firstRoleID || roleID == otherRoleID, nil
}

func (f *fakeRoles) Members(_ context.Context, _ snowflake.ID) ([]aggregation.Member, error) {
	return f.members, nil
}

func (f *fakeRoles) AddRole(_ context.Context, _, userID, roleID snowflake.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, fail := f.failAddFor[userID]; fail {
		return errors.New("missing permissions")
	}

	f.added = append(f.added, roleOp{userID: userID, roleID: roleID})

	return nil
}

func (f *fakeRoles) RemoveRole(_ context.Context, _, userID, roleID snowflake.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, fail := f.failRemoveFor[userID]; fail {
		return errors.New("missing permissions")
	}

	f.removed = append(f.removed, roleOp{userID: userID, roleID: roleID})

	return nil
}

func (f *fakeRoles) SetRoleColor(_ context.Context, _, _ snowflake.ID, color int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.colors = append(f.colors, color)

	return nil
}

type fakeRenderer struct {
	fail  bool
	calls []aggregation.RenderData
}

func (f *fakeRenderer) RenderRanking(_ context.Context, data aggregation.RenderData) ([]byte, error) {
	f.calls = append(f.calls, data)

	if f.fail {
		return nil, errors.New("encode failed")
	}

	return []byte("png"), nil
}

type engineFixture struct {
	engine   *aggregation.Engine
	activity *fakeActivity
	guilds   *fakeGuilds
	streaks  *fakeStreaks
	history  *fakeHistory
	roles    *fakeRoles
	renderer *fakeRenderer
}

func newFixture(counts []types.UserCount, members []aggregation.Member) *engineFixture {
	f := &engineFixture{
		activity: &fakeActivity{counts: counts},
		guilds: &fakeGuilds{config: &types.RoleConfig{
			GuildID:     testGuild,
			FirstRoleID: firstRoleID,
			OtherRoleID: otherRoleID,
		}},
		streaks:  newFakeStreaks(),
		history:  &fakeHistory{},
		roles:    &fakeRoles{members: members},
		renderer: &fakeRenderer{},
	}

	f.engine = aggregation.NewEngine(
		f.activity, f.guilds, f.streaks, f.history, f.roles, f.renderer, zap.NewNop(),
	)

	return f
}

func member(userID snowflake.ID, roleIDs ...snowflake.ID) aggregation.Member {
	return aggregation.Member{UserID: userID, Username: userID.String(), RoleIDs: roleIDs}
}

func TestRunAwardsTopSix(t *testing.T) {
	t.Parallel()

	counts := []types.UserCount{
		{UserID: 10, Count: 70},
		{UserID: 11, Count: 60},
		{UserID: 12, Count: 50},
		{UserID: 13, Count: 40},
		{UserID: 14, Count: 30},
		{UserID: 15, Count: 20},
		{UserID: 16, Count: 10},
	}

	members := make([]aggregation.Member, 0, len(counts))
	for _, count := range counts {
		members = append(members, member(count.UserID))
	}

	f := newFixture(counts, members)

	result, err := f.engine.Run(t.Context(), testGuild, "guild", aggregation.LiveWindow(time.Now()))
	require.NoError(t, err)

	require.Len(t, result.Rankings, 6)
	assert.Equal(t, snowflake.ID(10), result.Rankings[0].UserID)
	assert.Equal(t, enum.TierFirst, result.Rankings[0].Tier)

	for _, entry := range result.Rankings[1:] {
		assert.Equal(t, enum.TierOther, entry.Tier)
	}

	// Seventh by count receives nothing.
	for _, op := range f.roles.added {
		assert.NotEqual(t, snowflake.ID(16), op.userID)
	}

	assert.Len(t, f.roles.added, 6)
	assert.Equal(t, 1, f.activity.resets)
	require.Len(t, f.history.records, 1)
	assert.Len(t, f.history.records[0].Rankings, 6)
}

func TestRunStableTieOrder(t *testing.T) {
	t.Parallel()

	// A and B tie; A was seen first and must keep the higher rank.
	counts := []types.UserCount{
		{UserID: 20, Count: 50},
		{UserID: 21, Count: 50},
		{UserID: 22, Count: 30},
	}

	f := newFixture(counts, []aggregation.Member{member(20), member(21), member(22)})

	result, err := f.engine.Run(t.Context(), testGuild, "guild", aggregation.LiveWindow(time.Now()))
	require.NoError(t, err)

	require.Len(t, result.Rankings, 3)
	assert.Equal(t, snowflake.ID(20), result.Rankings[0].UserID)
	assert.Equal(t, snowflake.ID(21), result.Rankings[1].UserID)
	assert.Equal(t, snowflake.ID(22), result.Rankings[2].UserID)
}

func TestRunExcludedTopUserOmitted(t *testing.T) {
	t.Parallel()

	const excludedRole snowflake.ID = 99

	counts := []types.UserCount{
		{UserID: 30, Count: 100},
		{UserID: 31, Count: 40},
		{UserID: 32, Count: 20},
	}

	f := newFixture(counts, []aggregation.Member{
		member(30, excludedRole),
		member(31),
		member(32),
	})
	f.guilds.excluded = map[snowflake.ID]struct{}{excludedRole: {}}

	result, err := f.engine.Run(t.Context(), testGuild, "guild", aggregation.LiveWindow(time.Now()))
	require.NoError(t, err)

	require.Len(t, result.Rankings, 2)
	assert.Equal(t, snowflake.ID(31), result.Rankings[0].UserID)
	assert.Equal(t, enum.TierFirst, result.Rankings[0].Tier)
}

func TestRunLeftUsersSkippedSilently(t *testing.T) {
	t.Parallel()

	counts := []types.UserCount{
		{UserID: 40, Count: 80},
		{UserID: 41, Count: 60},
	}

	// User 40 left the guild; only 41 is still a member.
	f := newFixture(counts, []aggregation.Member{member(41)})

	result, err := f.engine.Run(t.Context(), testGuild, "guild", aggregation.LiveWindow(time.Now()))
	require.NoError(t, err)

	require.Len(t, result.Rankings, 1)
	assert.Equal(t, snowflake.ID(41), result.Rankings[0].UserID)
}

func TestRunPreconditionFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(f *engineFixture)
		window  aggregation.Window
		wantErr error
	}{
		{
			name:    "missing config",
			setup:   func(f *engineFixture) { f.guilds.config = nil },
			window:  aggregation.LiveWindow(time.Now()),
			wantErr: aggregation.ErrConfigMissing,
		},
		{
			name:    "deleted role",
			setup:   func(f *engineFixture) { f.guilds.config.FirstRoleID = 999 },
			window:  aggregation.LiveWindow(time.Now()),
			wantErr: aggregation.ErrRoleNotFound,
		},
		{
			name:  "inverted window",
			setup: func(_ *engineFixture) {},
			window: aggregation.Window{
				Start: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
			},
			wantErr: aggregation.ErrInvalidWindow,
		},
		{
			name:    "no activity",
			setup:   func(f *engineFixture) { f.activity.counts = nil },
			window:  aggregation.LiveWindow(time.Now()),
			wantErr: aggregation.ErrNoActivity,
		},
		{
			name: "everyone excluded",
			setup: func(f *engineFixture) {
				f.guilds.excluded = map[snowflake.ID]struct{}{50: {}}
			},
			window:  aggregation.LiveWindow(time.Now()),
			wantErr: aggregation.ErrNoEligibleUsers,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(
				[]types.UserCount{{UserID: 60, Count: 10}},
				[]aggregation.Member{member(60, 50)},
			)
			tt.setup(f)

			_, err := f.engine.Run(t.Context(), testGuild, "guild", tt.window)
			require.ErrorIs(t, err, tt.wantErr)

			// Precondition failures must leave every store untouched.
			assert.Zero(t, f.activity.resets)
			assert.Empty(t, f.roles.added)
			assert.Empty(t, f.roles.removed)
			assert.Empty(t, f.history.records)
		})
	}
}

func TestRunRenderFailurePreservesCounters(t *testing.T) {
	t.Parallel()

	counts := []types.UserCount{
		{UserID: 70, Count: 30},
		{UserID: 71, Count: 20},
	}
	members := []aggregation.Member{member(70), member(71)}

	f := newFixture(counts, members)
	f.renderer.fail = true

	_, err := f.engine.Run(t.Context(), testGuild, "guild", aggregation.LiveWindow(time.Now()))
	require.ErrorIs(t, err, aggregation.ErrRenderFailure)

	// Roles were assigned and the history written, but the counters survive.
	assert.Len(t, f.roles.added, 2)
	assert.Len(t, f.history.records, 1)
	assert.Zero(t, f.activity.resets)

	// A retry over the same counters reproduces the ranking and resets.
	f.renderer.fail = false

	result, err := f.engine.Run(t.Context(), testGuild, "guild", aggregation.LiveWindow(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(70), result.Rankings[0].UserID)
	assert.Equal(t, 1, f.activity.resets)
}

func TestRunDemotedHolderStreakReset(t *testing.T) {
	t.Parallel()

	counts := []types.UserCount{
		{UserID: 80, Count: 90},
		{UserID: 81, Count: 10},
	}

	// User 82 held the first role last cycle but sent nothing this cycle.
	members := []aggregation.Member{
		member(80),
		member(81),
		member(82, firstRoleID),
	}

	f := newFixture(counts, members)
	f.streaks.records[82] = &types.Streak{
		GuildID: testGuild, UserID: 82, Tier: enum.TierFirst, Count: 4,
	}

	_, err := f.engine.Run(t.Context(), testGuild, "guild", aggregation.LiveWindow(time.Now()))
	require.NoError(t, err)

	assert.Contains(t, f.streaks.resets, snowflake.ID(82))
	assert.Zero(t, f.streaks.records[82].Count)
	// The tier label survives the reset until a different tier is awarded.
	assert.Equal(t, enum.TierFirst, f.streaks.records[82].Tier)
}

func TestRunBlanketRevocation(t *testing.T) {
	t.Parallel()

	counts := []types.UserCount{
		{UserID: 90, Count: 50},
	}

	// Stale holders from a previous cycle, including one holding both roles.
	members := []aggregation.Member{
		member(90, otherRoleID),
		member(91, firstRoleID),
		member(92, firstRoleID, otherRoleID),
	}

	f := newFixture(counts, members)

	result, err := f.engine.Run(t.Context(), testGuild, "guild", aggregation.LiveWindow(time.Now()))
	require.NoError(t, err)

	assert.Zero(t, result.SkippedMembers)

	removed := make(map[roleOp]struct{}, len(f.roles.removed))
	for _, op := range f.roles.removed {
		removed[op] = struct{}{}
	}

	assert.Contains(t, removed, roleOp{userID: 90, roleID: otherRoleID})
	assert.Contains(t, removed, roleOp{userID: 91, roleID: firstRoleID})
	assert.Contains(t, removed, roleOp{userID: 92, roleID: firstRoleID})
	assert.Contains(t, removed, roleOp{userID: 92, roleID: otherRoleID})
}

func TestRunRevocationFailureSkipsMember(t *testing.T) {
	t.Parallel()

	counts := []types.UserCount{{UserID: 95, Count: 40}}
	members := []aggregation.Member{
		member(95),
		member(96, firstRoleID),
	}

	f := newFixture(counts, members)
	f.roles.failRemoveFor = map[snowflake.ID]struct{}{96: {}}

	result, err := f.engine.Run(t.Context(), testGuild, "guild", aggregation.LiveWindow(time.Now()))
	require.NoError(t, err)

	assert.Equal(t, 1, result.SkippedMembers)
	assert.Equal(t, 1, f.activity.resets)
}

func TestRunGrantFailureSkipsStreakAdvance(t *testing.T) {
	t.Parallel()

	counts := []types.UserCount{
		{UserID: 110, Count: 60},
		{UserID: 111, Count: 30},
	}

	f := newFixture(counts, []aggregation.Member{member(110), member(111)})
	f.roles.failAddFor = map[snowflake.ID]struct{}{111: {}}

	result, err := f.engine.Run(t.Context(), testGuild, "guild", aggregation.LiveWindow(time.Now()))
	require.NoError(t, err)

	assert.Equal(t, 1, result.SkippedMembers)

	// The failed member still appears in the computed ranking.
	require.Len(t, result.Rankings, 2)
	assert.Equal(t, snowflake.ID(111), result.Rankings[1].UserID)

	// But their streak was not advanced.
	_, tracked := f.streaks.records[111]
	assert.False(t, tracked)
}

func TestRunRestoresFirstRoleColor(t *testing.T) {
	t.Parallel()

	counts := []types.UserCount{{UserID: 120, Count: 10}}

	f := newFixture(counts, []aggregation.Member{member(120)})
	f.guilds.roleColor = &types.RoleColor{
		GuildID: testGuild, RoleID: firstRoleID, OriginalColor: 0x99aab5,
	}

	_, err := f.engine.Run(t.Context(), testGuild, "guild", aggregation.LiveWindow(time.Now()))
	require.NoError(t, err)

	require.Len(t, f.roles.colors, 1)
	assert.Equal(t, 0x99aab5, f.roles.colors[0])

	// The saved color is consumed by the restore, so a second run leaves the
	// role color alone.
	assert.Equal(t, 1, f.guilds.colorDeletes)

	_, err = f.engine.Run(t.Context(), testGuild, "guild", aggregation.LiveWindow(time.Now()))
	require.NoError(t, err)

	assert.Len(t, f.roles.colors, 1)
	assert.Equal(t, 1, f.guilds.colorDeletes)
}

func TestRunSerializedPerGuild(t *testing.T) {
	t.Parallel()

	counts := []types.UserCount{{UserID: 130, Count: 10}}

	f := newFixture(counts, []aggregation.Member{member(130)})

	release := make(chan struct{})
	started := make(chan struct{})

	blocking := &blockingRenderer{release: release, started: started}
	f.renderer.fail = false
	engine := aggregation.NewEngine(
		f.activity, f.guilds, f.streaks, f.history, f.roles, blocking, zap.NewNop(),
	)

	done := make(chan error, 1)

	go func() {
		_, err := engine.Run(context.Background(), testGuild, "guild", aggregation.LiveWindow(time.Now()))
		done <- err
	}()

	<-started

	_, err := engine.Run(context.Background(), testGuild, "guild", aggregation.LiveWindow(time.Now()))
	require.ErrorIs(t, err, aggregation.ErrRunInProgress)

	// A different guild is not blocked by the in-flight run.
	_, err = engine.Run(context.Background(), 200, "other", aggregation.LiveWindow(time.Now()))
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
}

// blockingRenderer blocks the first render until released and passes every
// render after that.
type blockingRenderer struct {
	release <-chan struct{}
	started chan<- struct{}
	first   atomic.Bool
}

func (b *blockingRenderer) RenderRanking(_ context.Context, _ aggregation.RenderData) ([]byte, error) {
	if b.first.CompareAndSwap(false, true) {
		b.started <- struct{}{}
		<-b.release
	}

	return []byte("png"), nil
}

func TestRank(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, aggregation.Rank(nil, aggregation.TopCount))
	})

	t.Run("single user gets first tier", func(t *testing.T) {
		t.Parallel()

		ranked := aggregation.Rank([]types.UserCount{{UserID: 1, Count: 1}}, aggregation.TopCount)
		require.Len(t, ranked, 1)
		assert.Equal(t, 1, ranked[0].Rank)
		assert.Equal(t, enum.TierFirst, ranked[0].Tier)
	})

	t.Run("input order preserved", func(t *testing.T) {
		t.Parallel()

		counts := []types.UserCount{
			{UserID: 1, Count: 5},
			{UserID: 2, Count: 9},
		}

		ranked := aggregation.Rank(counts, aggregation.TopCount)
		assert.Equal(t, snowflake.ID(2), ranked[0].UserID)
		// The caller's slice is not reordered.
		assert.Equal(t, snowflake.ID(1), counts[0].UserID)
	})
}
