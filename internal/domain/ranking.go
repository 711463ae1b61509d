package domain

import "time"

// OutRankSentinel is the reserved rank value meaning "outside the tracked
// range". It is never a real observed position; tracked lists are far shorter.
const OutRankSentinel = 201

// RankRecord is one parsed snapshot entry before it is persisted.
type RankRecord struct {
	Category    string
	Rank        int
	ProductName string
	ProductLink string
}

// RankObservation is one row of the append-only observation ledger. Rows are
// never updated in place; the latest row per product link determines the
// product's current displayed state.
type RankObservation struct {
	ID          int64
	Category    string
	Rank        int
	ProductName string
	ProductLink string
	OutRank     bool
	CreatedAt   time.Time
	MessageDate time.Time
	SessionID   string
}

// EffectiveRank is the rank used in change arithmetic; out-rank rows count as
// the sentinel value.
func (o RankObservation) EffectiveRank() int {
	if o.OutRank {
		return OutRankSentinel
	}
	return o.Rank
}

// SessionStatus enumerates update-session lifecycle states.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// UpdateSession scopes one batch of ingested snapshots between explicit
// start/end control messages.
type UpdateSession struct {
	SessionID   string
	StartedAt   time.Time
	CompletedAt time.Time
	Status      SessionStatus
	MessageDate time.Time
}

// MessageLog is the audit row recorded for every raw ingested message. The
// message id doubles as the replay-protection key.
type MessageLog struct {
	ID          int64
	MessageID   string
	Text        string
	ParsedCount int
	MessageDate time.Time
}

// CategoryStats aggregates the in-rank observations of one category.
type CategoryStats struct {
	Category        string
	TotalCount      int
	BestRank        int
	AvgRank         float64
	LastMessageDate time.Time
}
