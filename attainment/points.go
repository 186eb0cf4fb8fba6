package attainment

// PointsFromPercentage maps the share of students at or above target to 0-3 points.
func PointsFromPercentage(pct float64) int {
	switch {
	case pct >= 70:
		return 3
	case pct >= 60:
		return 2
	case pct >= 50:
		return 1
	default:
		return 0
	}
}

// Percentage returns 100 * count(scores >= target) / len(scores), or 0 for no scores.
func Percentage(target float64, scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	met := 0
	for _, s := range scores {
		if s >= target {
			met++
		}
	}
	return float64(met) / float64(len(scores)) * 100
}
