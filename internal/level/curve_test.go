package level_test

import (
	"testing"

	"github.com/mofucat/chatrank/internal/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXPForLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level int
		want  uint64
	}{
		{level: -1, want: 0},
		{level: 0, want: 0},
		{level: 1, want: 40},
		{level: 2, want: 226},  // 40 * 2^2.5
		{level: 4, want: 1280}, // 40 * 4^2.5
		{level: 10, want: 12649},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, level.XPForLevel(tt.level), "level %d", tt.level)
	}
}

func TestLevelForXP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		xp   uint64
		want int
	}{
		{name: "zero", xp: 0, want: 0},
		{name: "below first threshold", xp: 39, want: 0},
		{name: "exact first threshold", xp: 40, want: 1},
		{name: "between thresholds", xp: 225, want: 1},
		{name: "exact second threshold", xp: 226, want: 2},
		{name: "high total", xp: 12649, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, level.LevelForXP(tt.xp))
		})
	}
}

// The inverse must agree with the curve at and around every threshold over a
// realistic level range.
func TestLevelForXPMatchesCurve(t *testing.T) {
	t.Parallel()

	for lv := 1; lv <= 100; lv++ {
		threshold := level.XPForLevel(lv)

		assert.Equal(t, lv, level.LevelForXP(threshold), "at threshold of level %d", lv)
		assert.Equal(t, lv-1, level.LevelForXP(threshold-1), "just below threshold of level %d", lv)
	}
}

func TestProgressForXP(t *testing.T) {
	t.Parallel()

	progress := level.ProgressForXP(100)

	require.Equal(t, 1, progress.Level)
	assert.Equal(t, uint64(60), progress.Current)  // 100 - 40
	assert.Equal(t, uint64(186), progress.Needed)  // 226 - 40
	assert.Less(t, progress.Current, progress.Needed)
}

func TestProgressForXPAtZero(t *testing.T) {
	t.Parallel()

	progress := level.ProgressForXP(0)

	assert.Equal(t, 0, progress.Level)
	assert.Zero(t, progress.Current)
	assert.Equal(t, uint64(40), progress.Needed)
}
