package usecase

import (
	"context"
	"fmt"
	"time"

	"RankTracker/internal/domain"
)

// reconcile marks disappeared products as out-rank for every category touched
// by the session. Each category is its own atomic unit; a failure aborts
// without rolling back categories already written.
func (t *Tracker) reconcile(ctx context.Context, sessionID string, messageDate time.Time) error {
	categories, err := t.ledger.SessionCategories(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("session categories: %w", err)
	}

	for _, category := range categories {
		if err := t.reconcileCategory(ctx, sessionID, category, messageDate); err != nil {
			return fmt.Errorf("reconcile category %q: %w", category, err)
		}
	}
	return nil
}

func (t *Tracker) reconcileCategory(ctx context.Context, sessionID, category string, messageDate time.Time) error {
	seen, err := t.ledger.SessionLinks(ctx, sessionID, category, false)
	if err != nil {
		return fmt.Errorf("session in-rank links: %w", err)
	}
	// Links already marked out under this session; makes re-running after a
	// partial failure safe.
	marked, err := t.ledger.SessionLinks(ctx, sessionID, category, true)
	if err != nil {
		return fmt.Errorf("session out-rank links: %w", err)
	}

	// Candidates are products whose latest observation across all categories
	// is in-rank in this category. The global resolution matters: a product
	// whose newest row moved to another category is no longer active here and
	// must not be marked out.
	candidates, err := t.ledger.ActiveInRank(ctx, category)
	if err != nil {
		return fmt.Errorf("latest in-rank: %w", err)
	}

	seenSet := toSet(seen)
	markedSet := toSet(marked)

	var out []domain.RankObservation
	now := t.now()
	for _, c := range candidates {
		if c.Rank == domain.OutRankSentinel {
			continue
		}
		if seenSet[c.ProductLink] || markedSet[c.ProductLink] {
			continue
		}
		out = append(out, domain.RankObservation{
			Category:    category,
			Rank:        domain.OutRankSentinel,
			ProductName: c.ProductName,
			ProductLink: c.ProductLink,
			OutRank:     true,
			CreatedAt:   now,
			MessageDate: messageDate,
			SessionID:   sessionID,
		})
	}

	if len(out) == 0 {
		return nil
	}
	if err := t.ledger.Append(ctx, out); err != nil {
		return fmt.Errorf("append out-rank rows: %w", err)
	}
	t.debug("marked products out of rank", "category", category, "count", len(out))
	return nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
