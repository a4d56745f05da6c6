// Package level implements the XP curve for lifetime chat progression.
package level

import "math"

// XPPerMessage is the amount of XP awarded for each counted message.
const XPPerMessage = 5

// XPForLevel returns the total XP required to reach a level. The curve is
// 40 * level^2.5, so early levels come quickly and high levels take
// sustained activity.
func XPForLevel(level int) uint64 {
	if level <= 0 {
		return 0
	}

	return uint64(40 * math.Pow(float64(level), 2.5))
}

// LevelForXP returns the highest level whose requirement the given total XP
// satisfies.
func LevelForXP(xp uint64) int {
	if xp == 0 {
		return 0
	}

	// Invert the curve, then correct for floating point error around the
	// exact thresholds.
	level := int(math.Pow(float64(xp)/40, 1.0/2.5))
	for XPForLevel(level+1) <= xp {
		level++
	}
	for level > 0 && XPForLevel(level) > xp {
		level--
	}

	return level
}

// Progress describes where a total XP amount sits between two levels.
type Progress struct {
	Level   int
	Current uint64 // XP earned past the current level's requirement
	Needed  uint64 // XP between the current and next level requirements
}

// ProgressForXP computes the level and the partial progress toward the next
// one for a total XP amount.
func ProgressForXP(xp uint64) Progress {
	level := LevelForXP(xp)
	floor := XPForLevel(level)
	ceil := XPForLevel(level + 1)

	return Progress{
		Level:   level,
		Current: xp - floor,
		Needed:  ceil - floor,
	}
}
