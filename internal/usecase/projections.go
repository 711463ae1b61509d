package usecase

import (
	"context"
	"fmt"
	"time"

	"RankTracker/internal/domain"
)

// RankingWithChange is a latest-rank row enriched with the delta against the
// product's previous in-rank observation.
type RankingWithChange struct {
	domain.RankObservation
	PrevRank   int
	HasPrev    bool
	Change     int
	ChangeType domain.ChangeType
}

// TrendPoint is one step of a product's rank history. DisplayRank substitutes
// the sentinel for out-rank rows so charts can plot a continuous series.
type TrendPoint struct {
	domain.RankObservation
	DisplayRank int
	Change      int
	ChangeType  domain.ChangeType
}

// ProductTrend is the full per-product history projection.
type ProductTrend struct {
	ProductName  string
	ProductLink  string
	Category     string
	CurrentRank  int
	BestRank     int
	WorstRank    int
	TotalRecords int
	Points       []TrendPoint
}

// Stats bundles the per-category aggregates with the overall last update.
type Stats struct {
	Categories []domain.CategoryStats
	LastUpdate time.Time
}

// Latest returns each product's current in-rank position, best rank first.
func (t *Tracker) Latest(ctx context.Context, category string) ([]domain.RankObservation, error) {
	return t.ledger.LatestInRank(ctx, category)
}

// LatestWithChanges enriches the latest view with rank-change classification
// against each product's previous in-rank observation.
func (t *Tracker) LatestWithChanges(ctx context.Context, category string) ([]RankingWithChange, error) {
	latest, err := t.ledger.LatestInRank(ctx, category)
	if err != nil {
		return nil, err
	}

	result := make([]RankingWithChange, 0, len(latest))
	for _, obs := range latest {
		prev, ok, err := t.ledger.PreviousInRank(ctx, obs.ProductLink, obs.ID)
		if err != nil {
			return nil, err
		}
		change, changeType := domain.ClassifyChange(obs.Rank, prev.Rank, ok)
		entry := RankingWithChange{
			RankObservation: obs,
			Change:          change,
			ChangeType:      changeType,
		}
		if ok {
			entry.PrevRank = prev.Rank
			entry.HasPrev = true
		}
		result = append(result, entry)
	}
	return result, nil
}

// OutRank lists products whose latest state is out of rank, newest first.
func (t *Tracker) OutRank(ctx context.Context, category string) ([]domain.RankObservation, error) {
	return t.ledger.LatestOutRank(ctx, category)
}

// ProductTrend builds the per-product history with step-by-step change
// classification; out-rank rows count as the sentinel in the arithmetic.
func (t *Tracker) ProductTrend(ctx context.Context, productLink string) (ProductTrend, error) {
	history, err := t.ledger.History(ctx, productLink)
	if err != nil {
		return ProductTrend{}, err
	}
	if len(history) == 0 {
		return ProductTrend{}, fmt.Errorf("product %s: %w", productLink, ErrNotFound)
	}

	trend := ProductTrend{
		ProductName:  history[0].ProductName,
		ProductLink:  productLink,
		Category:     history[0].Category,
		TotalRecords: len(history),
		BestRank:     domain.OutRankSentinel,
	}

	points := make([]TrendPoint, 0, len(history))
	for i, obs := range history {
		display := obs.EffectiveRank()

		change, changeType := 0, domain.ChangeNew
		if i > 0 {
			change, changeType = domain.ClassifyChange(display, history[i-1].EffectiveRank(), true)
		}
		points = append(points, TrendPoint{
			RankObservation: obs,
			DisplayRank:     display,
			Change:          change,
			ChangeType:      changeType,
		})

		if !obs.OutRank && obs.Rank < trend.BestRank {
			trend.BestRank = obs.Rank
		}
		if display > trend.WorstRank {
			trend.WorstRank = display
		}
	}

	trend.Points = points
	trend.CurrentRank = history[len(history)-1].EffectiveRank()
	return trend, nil
}

// Stats aggregates the in-rank ledger per category.
func (t *Tracker) Stats(ctx context.Context) (Stats, error) {
	categories, err := t.ledger.CategoryStats(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Categories: categories}
	for _, c := range categories {
		if c.LastMessageDate.After(stats.LastUpdate) {
			stats.LastUpdate = c.LastMessageDate
		}
	}
	return stats, nil
}

// Categories lists every observed category.
func (t *Tracker) Categories(ctx context.Context) ([]string, error) {
	return t.ledger.Categories(ctx)
}

// CategoryTrends returns a category's observations over the trailing window.
func (t *Tracker) CategoryTrends(ctx context.Context, category string, days int) ([]domain.RankObservation, error) {
	if days <= 0 {
		days = 7
	}
	since := t.now().AddDate(0, 0, -days)
	return t.ledger.CategoryWindow(ctx, category, since)
}

// Export returns the raw ledger rows for CSV export.
func (t *Tracker) Export(ctx context.Context, category string) ([]domain.RankObservation, error) {
	return t.ledger.Export(ctx, category)
}

// ExportProduct returns one product's full history for CSV export.
func (t *Tracker) ExportProduct(ctx context.Context, productLink string) (ProductTrend, error) {
	return t.ProductTrend(ctx, productLink)
}

// Reset wipes all observations and the message audit log.
func (t *Tracker) Reset(ctx context.Context) error {
	return t.ledger.Reset(ctx)
}
