package usecase

import (
	"errors"
	"log/slog"
	"time"

	"RankTracker/internal/parser"
	"RankTracker/internal/ports"
)

var (
	// ErrNoRankingsFound reports that a message matched no category, brand or
	// field pattern. Callers surface this as "no data found", not a failure.
	ErrNoRankingsFound = errors.New("no rankings found in message")
	// ErrNoActiveSession reports an end-session signal without an open session.
	ErrNoActiveSession = errors.New("no update session in progress")
	// ErrNotFound reports a missing product or resource.
	ErrNotFound = errors.New("not found")
)

// Tracker implements ingestion, session lifecycle, out-rank reconciliation
// and the read-side projections over the ranking ledger.
type Tracker struct {
	ledger   ports.RankingLedger
	sessions ports.SessionStore
	audit    ports.MessageAudit
	parser   *parser.Parser
	logger   *slog.Logger
	now      func() time.Time
}

// TrackerDeps wires the driven adapters into the tracker.
type TrackerDeps struct {
	Ledger   ports.RankingLedger
	Sessions ports.SessionStore
	Audit    ports.MessageAudit
	Parser   *parser.Parser
	Logger   *slog.Logger
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// NewTracker constructs the tracker core.
func NewTracker(deps TrackerDeps) *Tracker {
	p := deps.Parser
	if p == nil {
		p = parser.New("", "")
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		ledger:   deps.Ledger,
		sessions: deps.Sessions,
		audit:    deps.Audit,
		parser:   p,
		logger:   deps.Logger,
		now:      now,
	}
}

func (t *Tracker) debug(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Debug(msg, args...)
	}
}
