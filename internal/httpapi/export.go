package httpapi

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"RankTracker/internal/usecase"
)

// utf8BOM keeps Excel happy with the Korean CSV headers.
const utf8BOM = "\uFEFF"

func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	rows, err := s.tracker.Export(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.logError("export failed", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := fmt.Sprintf("rankings-all-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := w.Write([]byte(utf8BOM)); err != nil {
		return
	}

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"카테고리", "순위", "상품명", "상품링크", "순위상태", "기록시간", "메시지시간"})
	for _, row := range rows {
		status := "순위권"
		if row.OutRank {
			status = "OUT"
		}
		_ = writer.Write([]string{
			row.Category,
			strconv.Itoa(row.Rank),
			row.ProductName,
			row.ProductLink,
			status,
			row.CreatedAt.Format(timeLayout),
			row.MessageDate.Format(timeLayout),
		})
	}
	writer.Flush()
}

func (s *Server) handleExportProduct(w http.ResponseWriter, r *http.Request) {
	productLink := r.URL.Query().Get("product_link")
	if productLink == "" {
		s.writeError(w, http.StatusBadRequest, "product_link parameter is required")
		return
	}

	trend, err := s.tracker.ExportProduct(r.Context(), productLink)
	if err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		s.logError("product export failed", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := fmt.Sprintf("product-%s-%s.csv",
		sanitizeFilename(trend.ProductName), time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := w.Write([]byte(utf8BOM)); err != nil {
		return
	}

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"상품명", trend.ProductName})
	_ = writer.Write([]string{"카테고리", trend.Category})
	_ = writer.Write([]string{"링크", trend.ProductLink})
	_ = writer.Write([]string{})
	_ = writer.Write([]string{"순위", "순위상태", "기록시간", "메시지시간"})
	for _, p := range trend.Points {
		status := "순위권"
		if p.OutRank {
			status = "OUT"
		}
		_ = writer.Write([]string{
			strconv.Itoa(p.Rank),
			status,
			p.CreatedAt.Format(timeLayout),
			p.MessageDate.Format(timeLayout),
		})
	}
	writer.Flush()
}

// sanitizeFilename keeps the attachment name header-safe: non-alphanumeric
// runes become underscores and the name is capped at 20 runes.
func sanitizeFilename(name string) string {
	var b strings.Builder
	count := 0
	for _, r := range name {
		if count >= 20 {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		count++
	}
	if b.Len() == 0 {
		return "export"
	}
	return b.String()
}
