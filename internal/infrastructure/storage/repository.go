package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"RankTracker/internal/domain"
	"RankTracker/internal/ports"
)

// Repository implements the ledger, session and message-audit ports on top of
// database/sql. All SQL is built with squirrel so the same code serves both
// the postgres and the sqlite dialect (see Open).
type Repository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var (
	_ ports.RankingLedger = (*Repository)(nil)
	_ ports.SessionStore  = (*Repository)(nil)
	_ ports.MessageAudit  = (*Repository)(nil)
)

var obsColumns = []string{
	"id", "category", "rank", "product_name", "product_link",
	"out_rank", "created_at", "message_date", "update_session_id",
}

// Close releases the underlying database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Append inserts the observations inside a single transaction.
func (r *Repository) Append(ctx context.Context, obs []domain.RankObservation) error {
	if len(obs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	for _, o := range obs {
		query, args, err := r.sb.Insert("rank_observations").
			Columns("category", "rank", "product_name", "product_link",
				"out_rank", "created_at", "message_date", "update_session_id").
			Values(o.Category, o.Rank, o.ProductName, o.ProductLink,
				boolToInt(o.OutRank), o.CreatedAt.Unix(), o.MessageDate.Unix(),
				nullableString(o.SessionID)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// LatestInRank returns each product's latest observation within the category,
// keeping products whose latest in-category state is in-rank, ordered best
// rank first. This is the display view: a product that moved to another
// category still shows its last position here.
func (r *Repository) LatestInRank(ctx context.Context, category string) ([]domain.RankObservation, error) {
	return r.latestPerProduct(ctx, category, false, true)
}

// LatestOutRank returns products whose latest observation across all
// categories is an out-rank marker in the given category, most recent first.
func (r *Repository) LatestOutRank(ctx context.Context, category string) ([]domain.RankObservation, error) {
	return r.latestPerProduct(ctx, category, true, false)
}

// ActiveInRank returns products whose latest observation across all
// categories is in-rank in the given category. Unlike LatestInRank the latest
// row is resolved globally, so a product whose newest observation moved to
// another category does not appear.
func (r *Repository) ActiveInRank(ctx context.Context, category string) ([]domain.RankObservation, error) {
	return r.latestPerProduct(ctx, category, false, false)
}

func (r *Repository) latestPerProduct(ctx context.Context, category string, outRank, scopeLatest bool) ([]domain.RankObservation, error) {
	// Ids are monotonic and assigned in insert order, so MAX(id) per product
	// is "latest createdAt, latest insert wins" without timestamp-tie rows.
	// With scopeLatest the latest row is resolved within the category only;
	// otherwise it is resolved globally and the category filters the result.
	inner := sq.Select("MAX(id)").From("rank_observations").GroupBy("product_link")
	if category != "" && scopeLatest {
		inner = inner.Where(sq.Eq{"category": category})
	}
	innerSQL, innerArgs, err := inner.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest subquery: %w", err)
	}

	q := r.sb.Select(obsColumns...).
		From("rank_observations").
		Where(sq.Expr("id IN ("+innerSQL+")", innerArgs...)).
		Where(sq.Eq{"out_rank": boolToInt(outRank)})
	if category != "" {
		q = q.Where(sq.Eq{"category": category})
	}
	if outRank {
		q = q.OrderBy("created_at DESC", "id DESC")
	} else {
		q = q.OrderBy("rank ASC", "id ASC")
	}

	return r.queryObservations(ctx, q)
}

// PreviousInRank returns the product's most recent in-rank observation
// inserted before the row identified by beforeID.
func (r *Repository) PreviousInRank(ctx context.Context, productLink string, beforeID int64) (domain.RankObservation, bool, error) {
	q := r.sb.Select(obsColumns...).
		From("rank_observations").
		Where(sq.Eq{"product_link": productLink, "out_rank": 0}).
		Where(sq.Lt{"id": beforeID}).
		OrderBy("id DESC").
		Limit(1)

	rows, err := r.queryObservations(ctx, q)
	if err != nil {
		return domain.RankObservation{}, false, err
	}
	if len(rows) == 0 {
		return domain.RankObservation{}, false, nil
	}
	return rows[0], true, nil
}

// History returns the product's observations oldest first. Rows within the
// same clock minute collapse to the row with the highest id, which folds away
// near-simultaneous duplicate writes from repeated ingestion.
func (r *Repository) History(ctx context.Context, productLink string) ([]domain.RankObservation, error) {
	inner := sq.Select("MAX(id)").
		From("rank_observations").
		Where(sq.Eq{"product_link": productLink}).
		GroupBy("created_at / 60")
	innerSQL, innerArgs, err := inner.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history subquery: %w", err)
	}

	q := r.sb.Select(obsColumns...).
		From("rank_observations").
		Where(sq.Expr("id IN ("+innerSQL+")", innerArgs...)).
		OrderBy("created_at ASC", "id ASC")

	return r.queryObservations(ctx, q)
}

// SessionCategories lists the distinct categories touched by a session.
func (r *Repository) SessionCategories(ctx context.Context, sessionID string) ([]string, error) {
	q := r.sb.Select("DISTINCT category").
		From("rank_observations").
		Where(sq.Eq{"update_session_id": sessionID}).
		OrderBy("category ASC")
	return r.queryStrings(ctx, q)
}

// SessionLinks lists the distinct product links recorded under a session and
// category, filtered by the out-rank flag.
func (r *Repository) SessionLinks(ctx context.Context, sessionID, category string, outRank bool) ([]string, error) {
	q := r.sb.Select("DISTINCT product_link").
		From("rank_observations").
		Where(sq.Eq{
			"update_session_id": sessionID,
			"category":          category,
			"out_rank":          boolToInt(outRank),
		})
	return r.queryStrings(ctx, q)
}

// CategoryStats aggregates the in-rank observations of every category.
func (r *Repository) CategoryStats(ctx context.Context) ([]domain.CategoryStats, error) {
	q := r.sb.Select("category", "COUNT(*)", "MIN(rank)", "AVG(rank)", "MAX(message_date)").
		From("rank_observations").
		Where(sq.Eq{"out_rank": 0}).
		GroupBy("category").
		OrderBy("category ASC")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stats query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var result []domain.CategoryStats
	for rows.Next() {
		var (
			s        domain.CategoryStats
			lastDate int64
		)
		if err := rows.Scan(&s.Category, &s.TotalCount, &s.BestRank, &s.AvgRank, &lastDate); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		s.LastMessageDate = time.Unix(lastDate, 0).UTC()
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// Categories lists every category ever observed.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	q := r.sb.Select("DISTINCT category").
		From("rank_observations").
		OrderBy("category ASC")
	return r.queryStrings(ctx, q)
}

// CategoryWindow returns a category's observations since the given time.
func (r *Repository) CategoryWindow(ctx context.Context, category string, since time.Time) ([]domain.RankObservation, error) {
	q := r.sb.Select(obsColumns...).
		From("rank_observations").
		Where(sq.Eq{"category": category}).
		Where(sq.GtOrEq{"created_at": since.Unix()}).
		OrderBy("created_at ASC", "rank ASC")
	return r.queryObservations(ctx, q)
}

// Export returns the full ledger for CSV export, newest message first.
func (r *Repository) Export(ctx context.Context, category string) ([]domain.RankObservation, error) {
	q := r.sb.Select(obsColumns...).
		From("rank_observations").
		OrderBy("message_date DESC", "rank ASC")
	if category != "" {
		q = q.Where(sq.Eq{"category": category})
	}
	return r.queryObservations(ctx, q)
}

// Reset wipes observations and the message audit log. Sessions are kept as a
// historical record.
func (r *Repository) Reset(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM rank_observations"); err != nil {
		return fmt.Errorf("delete observations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM ingested_messages"); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}

// Create inserts a new update session.
func (r *Repository) Create(ctx context.Context, s domain.UpdateSession) error {
	query, args, err := r.sb.Insert("update_sessions").
		Columns("session_id", "started_at", "completed_at", "status", "message_date").
		Values(s.SessionID, s.StartedAt.Unix(), nil, string(s.Status), s.MessageDate.Unix()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build session insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// CurrentOpen resolves the most recently started in-progress session.
func (r *Repository) CurrentOpen(ctx context.Context) (domain.UpdateSession, bool, error) {
	query, args, err := r.sb.Select("session_id", "started_at", "completed_at", "status", "message_date").
		From("update_sessions").
		Where(sq.Eq{"status": string(domain.SessionInProgress)}).
		OrderBy("started_at DESC", "session_id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.UpdateSession{}, false, fmt.Errorf("build session query: %w", err)
	}

	var (
		s           domain.UpdateSession
		startedAt   int64
		completedAt sql.NullInt64
		status      string
		messageDate int64
	)
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&s.SessionID, &startedAt, &completedAt, &status, &messageDate)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UpdateSession{}, false, nil
	}
	if err != nil {
		return domain.UpdateSession{}, false, fmt.Errorf("scan session: %w", err)
	}

	s.StartedAt = time.Unix(startedAt, 0).UTC()
	if completedAt.Valid {
		s.CompletedAt = time.Unix(completedAt.Int64, 0).UTC()
	}
	s.Status = domain.SessionStatus(status)
	s.MessageDate = time.Unix(messageDate, 0).UTC()
	return s, true, nil
}

// Complete marks the session completed.
func (r *Repository) Complete(ctx context.Context, sessionID string, at time.Time) error {
	query, args, err := r.sb.Update("update_sessions").
		Set("completed_at", at.Unix()).
		Set("status", string(domain.SessionCompleted)).
		Where(sq.Eq{"session_id": sessionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build session update: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	return nil
}

// Seen reports whether a message id was already recorded.
func (r *Repository) Seen(ctx context.Context, messageID string) (bool, error) {
	query, args, err := r.sb.Select("COUNT(*)").
		From("ingested_messages").
		Where(sq.Eq{"message_id": messageID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build audit query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("query audit: %w", err)
	}
	return count > 0, nil
}

// Record appends the message audit row.
func (r *Repository) Record(ctx context.Context, m domain.MessageLog) error {
	query, args, err := r.sb.Insert("ingested_messages").
		Columns("message_id", "message_text", "parsed_count", "message_date").
		Values(m.MessageID, m.Text, m.ParsedCount, m.MessageDate.Unix()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit row: %w", err)
	}
	return nil
}

func (r *Repository) queryObservations(ctx context.Context, q sq.SelectBuilder) ([]domain.RankObservation, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var result []domain.RankObservation
	for rows.Next() {
		var (
			o           domain.RankObservation
			outRank     int
			createdAt   int64
			messageDate int64
			sessionID   sql.NullString
		)
		err := rows.Scan(&o.ID, &o.Category, &o.Rank, &o.ProductName, &o.ProductLink,
			&outRank, &createdAt, &messageDate, &sessionID)
		if err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.OutRank = outRank != 0
		o.CreatedAt = time.Unix(createdAt, 0).UTC()
		o.MessageDate = time.Unix(messageDate, 0).UTC()
		o.SessionID = sessionID.String
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

func (r *Repository) queryStrings(ctx context.Context, q sq.SelectBuilder) ([]string, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query strings: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan string: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
