// Package leveling maps cumulative achievement points to levels.
package leveling

import "math"

// pointsPerLevelUnit scales the quadratic level curve.
const pointsPerLevelUnit = 100

// LevelFor returns floor(sqrt(points/100)) + 1. Negative totals count as zero.
func LevelFor(points int) int {
	if points <= 0 {
		return 1
	}
	level := int(math.Sqrt(float64(points) / pointsPerLevelUnit))
	// Correct float rounding at exact squares.
	for (level+1)*(level+1)*pointsPerLevelUnit <= points {
		level++
	}
	for level > 0 && level*level*pointsPerLevelUnit > points {
		level--
	}
	return level + 1
}

// PointsForLevelFloor returns the minimum total for level.
func PointsForLevelFloor(level int) int {
	if level <= 1 {
		return 0
	}
	return (level - 1) * (level - 1) * pointsPerLevelUnit
}

// PointsForNextLevel returns the total at which the level after LevelFor(points) starts.
func PointsForNextLevel(points int) int {
	level := LevelFor(points)
	return level * level * pointsPerLevelUnit
}

// Result describes the outcome of AddPoints.
type Result struct {
	NewTotal  int  `json:"newTotal"`
	LeveledUp bool `json:"leveledUp"`
	NewLevel  int  `json:"newLevel"`
}

// AddPoints adds delta to old and reports whether a level boundary was crossed.
func AddPoints(old, delta int) Result {
	total := old + delta
	if total < 0 {
		total = 0
	}
	newLevel := LevelFor(total)
	return Result{
		NewTotal:  total,
		LeveledUp: newLevel > LevelFor(old),
		NewLevel:  newLevel,
	}
}

// Progress reports how far points are through the current level, in percent.
func Progress(points int) float64 {
	floor := PointsForLevelFloor(LevelFor(points))
	next := PointsForNextLevel(points)
	if next == floor {
		return 0
	}
	return math.Round(float64(points-floor)/float64(next-floor)*1000) / 10
}
