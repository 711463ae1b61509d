package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"RankTracker/internal/domain"
	"RankTracker/internal/usecase"
)

const timeLayout = "2006-01-02 15:04:05"

// Server exposes the tracker over a JSON HTTP API plus CSV export and the
// embedded dashboard.
type Server struct {
	tracker *usecase.Tracker
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New builds the server and registers all routes.
func New(tracker *usecase.Tracker, logger *slog.Logger) *Server {
	s := &Server{
		tracker: tracker,
		logger:  logger,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /{$}", s.handleDashboard)
	s.mux.HandleFunc("POST /api/rankings/import", s.handleImport)
	s.mux.HandleFunc("POST /api/telegram/webhook", s.handleWebhook)
	s.mux.HandleFunc("DELETE /api/rankings/reset", s.handleReset)
	s.mux.HandleFunc("GET /api/rankings/latest", s.handleLatest)
	s.mux.HandleFunc("GET /api/rankings/latest-with-changes", s.handleLatestWithChanges)
	s.mux.HandleFunc("GET /api/rankings/out-rank", s.handleOutRank)
	s.mux.HandleFunc("GET /api/rankings/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/rankings/trends", s.handleTrends)
	s.mux.HandleFunc("GET /api/rankings/categories", s.handleCategories)
	s.mux.HandleFunc("GET /api/rankings/product-trends", s.handleProductTrends)
	s.mux.HandleFunc("GET /api/rankings/export/all", s.handleExportAll)
	s.mux.HandleFunc("GET /api/rankings/export/product", s.handleExportProduct)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type importRequest struct {
	MessageText string `json:"messageText"`
	MessageDate string `json:"messageDate"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "잘못된 요청 형식입니다")
		return
	}
	if req.MessageText == "" {
		s.writeError(w, http.StatusBadRequest, "메시지를 입력해주세요")
		return
	}

	result, err := s.tracker.Ingest(r.Context(), "", req.MessageText, parseMessageDate(req.MessageDate))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNoRankingsFound):
			s.writeError(w, http.StatusBadRequest, "순위 데이터를 찾을 수 없습니다. 메시지 형식을 확인해주세요.")
		case errors.Is(err, usecase.ErrNoActiveSession):
			s.writeError(w, http.StatusBadRequest, "진행 중인 업데이트 세션이 없습니다")
		default:
			s.logError("import failed", err)
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.writeJSON(w, http.StatusOK, importResponse(result))
}

func importResponse(result usecase.IngestResult) map[string]any {
	switch {
	case result.SessionStarted:
		return map[string]any{
			"success":    true,
			"message":    "업데이트 세션 시작",
			"session_id": result.SessionID,
		}
	case result.SessionClosed:
		return map[string]any{
			"success":    true,
			"message":    "업데이트 세션 완료 및 OUT Rank 처리 완료",
			"session_id": result.SessionID,
		}
	default:
		return map[string]any{
			"success":     true,
			"message":     "순위 데이터가 저장되었습니다",
			"parsedCount": result.RecordCount,
			"categories":  result.Categories,
			"session_id":  result.SessionID,
		}
	}
}

type telegramUpdate struct {
	Message struct {
		MessageID int64  `json:"message_id"`
		Text      string `json:"text"`
		Date      int64  `json:"date"`
	} `json:"message"`
}

// handleWebhook always answers 200: telegram retries non-2xx deliveries and
// the message audit makes replays no-ops anyway.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update telegramUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil || update.Message.Text == "" {
		s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "No text message"})
		return
	}

	messageID := strconv.FormatInt(update.Message.MessageID, 10)
	messageDate := time.Time{}
	if update.Message.Date > 0 {
		messageDate = time.Unix(update.Message.Date, 0).UTC()
	}

	result, err := s.tracker.Ingest(r.Context(), messageID, update.Message.Text, messageDate)
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrNoRankingsFound):
		s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "No rankings found", "parsedCount": 0})
		return
	case errors.Is(err, usecase.ErrNoActiveSession):
		s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "진행 중인 업데이트 세션이 없습니다"})
		return
	default:
		s.logError("webhook failed", err)
		s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Error processed", "error": err.Error()})
		return
	}

	if result.Duplicate {
		s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Already processed"})
		return
	}
	s.writeJSON(w, http.StatusOK, importResponse(result))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.Reset(r.Context()); err != nil {
		s.logError("reset failed", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "모든 데이터가 삭제되었습니다",
	})
}

type rankingJSON struct {
	ID          int64  `json:"id"`
	Category    string `json:"category"`
	Rank        int    `json:"rank"`
	ProductName string `json:"product_name"`
	ProductLink string `json:"product_link"`
	CreatedAt   string `json:"created_at"`
}

func toRankingJSON(obs domain.RankObservation) rankingJSON {
	return rankingJSON{
		ID:          obs.ID,
		Category:    obs.Category,
		Rank:        obs.Rank,
		ProductName: obs.ProductName,
		ProductLink: obs.ProductLink,
		CreatedAt:   obs.CreatedAt.Format(timeLayout),
	}
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	rankings, err := s.tracker.Latest(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.logError("latest failed", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	list := make([]rankingJSON, 0, len(rankings))
	for _, obs := range rankings {
		list = append(list, toRankingJSON(obs))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"count":    len(list),
		"rankings": list,
	})
}

type rankingWithChangeJSON struct {
	rankingJSON
	RankChange int    `json:"rank_change"`
	ChangeType string `json:"change_type"`
	PrevRank   *int   `json:"prev_rank"`
}

func (s *Server) handleLatestWithChanges(w http.ResponseWriter, r *http.Request) {
	rankings, err := s.tracker.LatestWithChanges(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.logError("latest-with-changes failed", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	list := make([]rankingWithChangeJSON, 0, len(rankings))
	for _, entry := range rankings {
		item := rankingWithChangeJSON{
			rankingJSON: toRankingJSON(entry.RankObservation),
			RankChange:  entry.Change,
			ChangeType:  string(entry.ChangeType),
		}
		if entry.HasPrev {
			prev := entry.PrevRank
			item.PrevRank = &prev
		}
		list = append(list, item)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"count":    len(list),
		"rankings": list,
	})
}

type outRankJSON struct {
	ID          int64  `json:"id"`
	Category    string `json:"category"`
	LastRank    int    `json:"last_rank"`
	ProductName string `json:"product_name"`
	ProductLink string `json:"product_link"`
	OutRankDate string `json:"out_rank_date"`
}

func (s *Server) handleOutRank(w http.ResponseWriter, r *http.Request) {
	rankings, err := s.tracker.OutRank(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.logError("out-rank failed", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	list := make([]outRankJSON, 0, len(rankings))
	for _, obs := range rankings {
		list = append(list, outRankJSON{
			ID:          obs.ID,
			Category:    obs.Category,
			LastRank:    obs.Rank,
			ProductName: obs.ProductName,
			ProductLink: obs.ProductLink,
			OutRankDate: obs.CreatedAt.Format(timeLayout),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"count":        len(list),
		"out_rankings": list,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.tracker.Stats(r.Context())
	if err != nil {
		s.logError("stats failed", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type statJSON struct {
		Category        string  `json:"category"`
		TotalCount      int     `json:"total_count"`
		BestRank        int     `json:"best_rank"`
		AvgRank         float64 `json:"avg_rank"`
		LastMessageDate string  `json:"last_message_date"`
	}
	list := make([]statJSON, 0, len(stats.Categories))
	for _, c := range stats.Categories {
		list = append(list, statJSON{
			Category:        c.Category,
			TotalCount:      c.TotalCount,
			BestRank:        c.BestRank,
			AvgRank:         c.AvgRank,
			LastMessageDate: c.LastMessageDate.Format(timeLayout),
		})
	}

	resp := map[string]any{"success": true, "stats": list}
	if !stats.LastUpdate.IsZero() {
		resp["last_update"] = stats.LastUpdate.Format(timeLayout)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		s.writeError(w, http.StatusBadRequest, "category parameter is required")
		return
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days <= 0 {
		days = 7
	}

	trends, err := s.tracker.CategoryTrends(r.Context(), category, days)
	if err != nil {
		s.logError("trends failed", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type trendJSON struct {
		ProductName string `json:"product_name"`
		Rank        int    `json:"rank"`
		CreatedAt   string `json:"created_at"`
		Date        string `json:"date"`
	}
	list := make([]trendJSON, 0, len(trends))
	for _, obs := range trends {
		list = append(list, trendJSON{
			ProductName: obs.ProductName,
			Rank:        obs.Rank,
			CreatedAt:   obs.CreatedAt.Format(timeLayout),
			Date:        obs.CreatedAt.Format("2006-01-02"),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"category": category,
		"days":     days,
		"count":    len(list),
		"trends":   list,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.tracker.Categories(r.Context())
	if err != nil {
		s.logError("categories failed", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if categories == nil {
		categories = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"categories": categories,
	})
}

func (s *Server) handleProductTrends(w http.ResponseWriter, r *http.Request) {
	productLink := r.URL.Query().Get("product_link")
	if productLink == "" {
		s.writeError(w, http.StatusBadRequest, "product_link parameter is required")
		return
	}

	trend, err := s.tracker.ProductTrend(r.Context(), productLink)
	if err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		s.logError("product-trends failed", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type pointJSON struct {
		ID           int64  `json:"id"`
		Category     string `json:"category"`
		Rank         int    `json:"rank"`
		OriginalRank int    `json:"original_rank"`
		ProductName  string `json:"product_name"`
		ProductLink  string `json:"product_link"`
		OutRank      bool   `json:"out_rank"`
		CreatedAt    string `json:"created_at"`
		RankChange   int    `json:"rank_change"`
		ChangeType   string `json:"change_type"`
	}
	points := make([]pointJSON, 0, len(trend.Points))
	for _, p := range trend.Points {
		points = append(points, pointJSON{
			ID:           p.ID,
			Category:     p.Category,
			Rank:         p.DisplayRank,
			OriginalRank: p.Rank,
			ProductName:  p.ProductName,
			ProductLink:  p.ProductLink,
			OutRank:      p.OutRank,
			CreatedAt:    p.CreatedAt.Format(timeLayout),
			RankChange:   p.Change,
			ChangeType:   string(p.ChangeType),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"product_name":  trend.ProductName,
		"category":      trend.Category,
		"current_rank":  trend.CurrentRank,
		"best_rank":     trend.BestRank,
		"worst_rank":    trend.WorstRank,
		"total_records": trend.TotalRecords,
		"trends":        points,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logError("encode response", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{"success": false, "error": message})
}

func (s *Server) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, "error", err)
	}
}

func parseMessageDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, timeLayout, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
