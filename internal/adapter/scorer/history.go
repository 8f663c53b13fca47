package scorer

// DefaultVeteranThreshold is the assignment count at which the historical
// experience score saturates at 1.0. With schedules spanning roughly
// fourteen to sixteen periods, eight is a sound veteran bar.
const DefaultVeteranThreshold = 8

// HistoryScore converts a past-assignment count into a bounded experience
// score: count/threshold, capped at 1.0. Zero prior assignments score
// exactly 0.0; threshold or more score exactly 1.0.
func HistoryScore(count, veteranThreshold int) float64 {
	if veteranThreshold <= 0 {
		veteranThreshold = DefaultVeteranThreshold
	}
	if count <= 0 {
		return 0.0
	}
	if count >= veteranThreshold {
		return 1.0
	}
	return float64(count) / float64(veteranThreshold)
}
