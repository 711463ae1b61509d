package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"RankTracker/internal/domain"
)

// Reserved control messages routed through the ingest entry point.
const (
	StartMarker = "[시작]"
	EndMarker   = "[끝]"
)

// IngestResult summarizes one processed message.
type IngestResult struct {
	SessionID      string
	RecordCount    int
	Categories     []string
	Duplicate      bool
	SessionStarted bool
	SessionClosed  bool
}

// Ingest processes one raw message: control markers drive the session
// lifecycle, anything else is parsed into rank observations appended under
// the current (possibly implicitly created) session. A non-empty messageID is
// the replay-protection key: a message already audited is a no-op returning
// zero new records. A zero messageDate defaults to the current time.
func (t *Tracker) Ingest(ctx context.Context, messageID, text string, messageDate time.Time) (IngestResult, error) {
	if messageDate.IsZero() {
		messageDate = t.now()
	}

	if messageID != "" {
		seen, err := t.audit.Seen(ctx, messageID)
		if err != nil {
			return IngestResult{}, fmt.Errorf("check message audit: %w", err)
		}
		if seen {
			t.debug("duplicate message replayed", "message_id", messageID)
			return IngestResult{Duplicate: true}, nil
		}
	}

	switch strings.TrimSpace(text) {
	case StartMarker:
		sessionID, err := t.StartSession(ctx, messageDate)
		if err != nil {
			return IngestResult{}, err
		}
		if err := t.logMessage(ctx, messageID, text, 0, messageDate); err != nil {
			return IngestResult{}, err
		}
		return IngestResult{SessionID: sessionID, SessionStarted: true}, nil

	case EndMarker:
		sessionID, err := t.CloseSession(ctx, messageDate)
		if err != nil {
			return IngestResult{}, err
		}
		if err := t.logMessage(ctx, messageID, text, 0, messageDate); err != nil {
			return IngestResult{}, err
		}
		return IngestResult{SessionID: sessionID, SessionClosed: true}, nil
	}

	records := t.parser.Parse(text)
	if len(records) == 0 {
		// The raw message is still audited so replays stay no-ops.
		if err := t.logMessage(ctx, messageID, text, 0, messageDate); err != nil {
			return IngestResult{}, err
		}
		return IngestResult{}, ErrNoRankingsFound
	}

	result, err := t.ingestRecords(ctx, records, messageDate)
	if err != nil {
		return IngestResult{}, err
	}
	if err := t.logMessage(ctx, messageID, text, len(records), messageDate); err != nil {
		return IngestResult{}, err
	}
	return result, nil
}

// IngestRecords appends already-structured records (the scraper path) under
// the current session.
func (t *Tracker) IngestRecords(ctx context.Context, records []domain.RankRecord, messageDate time.Time) (IngestResult, error) {
	if messageDate.IsZero() {
		messageDate = t.now()
	}
	if len(records) == 0 {
		return IngestResult{}, ErrNoRankingsFound
	}
	return t.ingestRecords(ctx, records, messageDate)
}

func (t *Tracker) ingestRecords(ctx context.Context, records []domain.RankRecord, messageDate time.Time) (IngestResult, error) {
	sessionID, err := t.EnsureSession(ctx, messageDate)
	if err != nil {
		return IngestResult{}, err
	}

	now := t.now()
	obs := make([]domain.RankObservation, 0, len(records))
	for _, r := range records {
		obs = append(obs, domain.RankObservation{
			Category:    r.Category,
			Rank:        r.Rank,
			ProductName: r.ProductName,
			ProductLink: r.ProductLink,
			CreatedAt:   now,
			MessageDate: messageDate,
			SessionID:   sessionID,
		})
	}
	if err := t.ledger.Append(ctx, obs); err != nil {
		return IngestResult{}, fmt.Errorf("append observations: %w", err)
	}

	categories := categoriesOf(records)
	t.debug("rankings ingested",
		"session_id", sessionID, "records", len(records), "categories", len(categories))
	return IngestResult{
		SessionID:   sessionID,
		RecordCount: len(records),
		Categories:  categories,
	}, nil
}

func (t *Tracker) logMessage(ctx context.Context, messageID, text string, parsed int, messageDate time.Time) error {
	if messageID == "" {
		// Manual imports have no upstream id; synthesize one so the audit row
		// is still unique. Replay protection only applies to real ids.
		messageID = "manual_" + uuid.NewString()
	}
	err := t.audit.Record(ctx, domain.MessageLog{
		MessageID:   messageID,
		Text:        text,
		ParsedCount: parsed,
		MessageDate: messageDate,
	})
	if err != nil {
		return fmt.Errorf("record message audit: %w", err)
	}
	return nil
}

func categoriesOf(records []domain.RankRecord) []string {
	seen := make(map[string]bool, len(records))
	var categories []string
	for _, r := range records {
		if !seen[r.Category] {
			seen[r.Category] = true
			categories = append(categories, r.Category)
		}
	}
	return categories
}
