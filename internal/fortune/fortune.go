// Package fortune implements the daily fortune draw.
package fortune

import "math/rand"

// Grade is the outcome tier of a fortune draw.
type Grade int

const (
	GradeGreatBlessing Grade = iota
	GradeBlessing
	GradeSmallBlessing
	GradeMisfortune
)

// String returns the display name of the grade.
func (g Grade) String() string {
	switch g {
	case GradeGreatBlessing:
		return "Great Blessing"
	case GradeBlessing:
		return "Blessing"
	case GradeSmallBlessing:
		return "Small Blessing"
	case GradeMisfortune:
		return "Misfortune"
	default:
		return "Unknown"
	}
}

// Draw weights, in per-mille. Great blessings are rare, misfortune rarer.
var weights = []struct {
	grade  Grade
	weight int
}{
	{GradeGreatBlessing, 150},
	{GradeBlessing, 400},
	{GradeSmallBlessing, 400},
	{GradeMisfortune, 50},
}

var messages = map[Grade][]string{
	GradeGreatBlessing: {
		"Everything you start today will flourish.",
		"An unexpected reunion brings great joy.",
		"Your words carry extra weight today. Use them well.",
	},
	GradeBlessing: {
		"Steady effort pays off sooner than you think.",
		"A small kindness returns to you doubled.",
		"Good news arrives from an unlikely direction.",
	},
	GradeSmallBlessing: {
		"A quiet day. Rest is also progress.",
		"Something lost turns up where you least expect it.",
		"Patience today spares you trouble tomorrow.",
	},
	GradeMisfortune: {
		"Double-check before you send. Haste bites today.",
		"Hold your tongue in the afternoon. It will pass.",
	},
}

// Result is one completed draw.
type Result struct {
	Grade   Grade
	Message string
}

// Draw performs one weighted fortune draw using the provided random source.
func Draw(rng *rand.Rand) Result {
	total := 0
	for _, w := range weights {
		total += w.weight
	}

	roll := rng.Intn(total)

	grade := GradeMisfortune
	for _, w := range weights {
		if roll < w.weight {
			grade = w.grade
			break
		}
		roll -= w.weight
	}

	pool := messages[grade]

	return Result{
		Grade:   grade,
		Message: pool[rng.Intn(len(pool))],
	}
}
