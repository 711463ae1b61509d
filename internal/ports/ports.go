package ports

import (
	"context"
	"time"

	"RankTracker/internal/domain"
)

// RankingLedger is the append-only observation store plus its read-side
// projections. Append is the only mutation besides Reset; rows are never
// updated in place.
type RankingLedger interface {
	// Append inserts the given observations as one atomic batch.
	Append(ctx context.Context, obs []domain.RankObservation) error
	// LatestInRank returns, per distinct product link, the latest observation
	// within the category, keeping only products whose latest in-category
	// state is in-rank. An empty category means all categories.
	LatestInRank(ctx context.Context, category string) ([]domain.RankObservation, error)
	// LatestOutRank returns products whose latest observation across all
	// categories is an out-rank marker in the given category.
	LatestOutRank(ctx context.Context, category string) ([]domain.RankObservation, error)
	// ActiveInRank returns products whose latest observation across all
	// categories is in-rank in the given category. A product whose newest
	// observation belongs to another category is excluded.
	ActiveInRank(ctx context.Context, category string) ([]domain.RankObservation, error)
	// PreviousInRank returns the most recent in-rank observation of the
	// product inserted before the row identified by beforeID.
	PreviousInRank(ctx context.Context, productLink string, beforeID int64) (domain.RankObservation, bool, error)
	// History returns all observations of a product ordered oldest first,
	// collapsing rows that share the same truncated-to-minute timestamp to
	// the latest insert of that minute.
	History(ctx context.Context, productLink string) ([]domain.RankObservation, error)
	// SessionCategories lists the distinct categories touched by a session.
	SessionCategories(ctx context.Context, sessionID string) ([]string, error)
	// SessionLinks lists the distinct product links recorded under a session
	// and category, filtered by the out-rank flag.
	SessionLinks(ctx context.Context, sessionID, category string, outRank bool) ([]string, error)
	// CategoryStats aggregates in-rank observations per category.
	CategoryStats(ctx context.Context) ([]domain.CategoryStats, error)
	// Categories lists every category ever observed.
	Categories(ctx context.Context) ([]string, error)
	// CategoryWindow returns a category's observations since the given time.
	CategoryWindow(ctx context.Context, category string, since time.Time) ([]domain.RankObservation, error)
	// Export returns the full ledger, optionally filtered to a category,
	// ordered for export (newest message first, best rank first).
	Export(ctx context.Context, category string) ([]domain.RankObservation, error)
	// Reset wipes observations and the message audit log.
	Reset(ctx context.Context) error
}

// SessionStore tracks update-session lifecycle rows.
type SessionStore interface {
	Create(ctx context.Context, s domain.UpdateSession) error
	// CurrentOpen resolves the most recently started in-progress session.
	CurrentOpen(ctx context.Context) (domain.UpdateSession, bool, error)
	Complete(ctx context.Context, sessionID string, at time.Time) error
}

// MessageAudit records raw ingested messages for replay protection.
type MessageAudit interface {
	Seen(ctx context.Context, messageID string) (bool, error)
	Record(ctx context.Context, m domain.MessageLog) error
}

// RankingSource pulls rank records straight from the site (scraper path).
type RankingSource interface {
	FetchRankings(ctx context.Context) ([]domain.RankRecord, error)
}

// Scheduler controls when periodic scrapes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
