package fortune_test

import (
	"math/rand"
	"testing"

	"github.com/mofucat/chatrank/internal/fortune"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawAlwaysReturnsMessage(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))

	for range 1000 {
		result := fortune.Draw(rng)
		assert.NotEmpty(t, result.Message)
		assert.NotEqual(t, "Unknown", result.Grade.String())
	}
}

func TestDrawDeterministicForSeed(t *testing.T) {
	t.Parallel()

	first := fortune.Draw(rand.New(rand.NewSource(42)))
	second := fortune.Draw(rand.New(rand.NewSource(42)))

	assert.Equal(t, first, second)
}

// With enough draws every grade appears and the frequencies land near the
// configured per-mille weights.
func TestDrawDistribution(t *testing.T) {
	t.Parallel()

	const draws = 100000

	rng := rand.New(rand.NewSource(7))
	counts := make(map[fortune.Grade]int)

	for range draws {
		counts[fortune.Draw(rng).Grade]++
	}

	require.Len(t, counts, 4)

	tests := []struct {
		grade    fortune.Grade
		expected float64
	}{
		{fortune.GradeGreatBlessing, 0.15},
		{fortune.GradeBlessing, 0.40},
		{fortune.GradeSmallBlessing, 0.40},
		{fortune.GradeMisfortune, 0.05},
	}

	for _, tt := range tests {
		ratio := float64(counts[tt.grade]) / draws
		assert.InDelta(t, tt.expected, ratio, 0.01, "grade %s", tt.grade)
	}
}

func TestGradeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Great Blessing", fortune.GradeGreatBlessing.String())
	assert.Equal(t, "Misfortune", fortune.GradeMisfortune.String())
	assert.Equal(t, "Unknown", fortune.Grade(99).String())
}
