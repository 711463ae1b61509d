package domain

// ChangeType classifies a rank movement between two observations.
type ChangeType string

const (
	ChangeUp     ChangeType = "up"
	ChangeDown   ChangeType = "down"
	ChangeStable ChangeType = "stable"
	ChangeNew    ChangeType = "new"
)

// ClassifyChange computes previous - current, so a positive delta means the
// product moved to a better (lower) position. Out-rank states must be passed
// as OutRankSentinel. A product without a previous observation classifies as
// ChangeNew regardless of its current rank.
func ClassifyChange(current, previous int, hasPrevious bool) (int, ChangeType) {
	if !hasPrevious {
		return 0, ChangeNew
	}
	change := previous - current
	switch {
	case change > 0:
		return change, ChangeUp
	case change < 0:
		return change, ChangeDown
	default:
		return 0, ChangeStable
	}
}
