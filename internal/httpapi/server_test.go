package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"RankTracker/internal/infrastructure/storage"
	"RankTracker/internal/usecase"
)

const sampleMessage = `W컨셉 베스트 아우터

브랜드: 하시에
순위: 3위
상품명: 울 싱글 코트
링크: https://www.wconcept.co.kr/Product/100

브랜드: 하시에
순위: 9위
상품명: 핸드메이드 하프 코트
링크: https://www.wconcept.co.kr/Product/200
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	tracker := usecase.NewTracker(usecase.TrackerDeps{
		Ledger:   repo,
		Sessions: repo,
		Audit:    repo,
	})
	return New(tracker, nil)
}

func doJSON(t *testing.T, srv *Server, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode %s %s response: %v (body %q)", method, target, err, rec.Body.String())
	}
	return rec, decoded
}

func TestImportAndLatest(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	payload, _ := json.Marshal(map[string]string{"messageText": sampleMessage})
	rec, body := doJSON(t, srv, http.MethodPost, "/api/rankings/import", string(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d, body %s", rec.Code, rec.Body.String())
	}
	if body["success"] != true {
		t.Fatalf("import response = %v", body)
	}
	if body["parsedCount"] != float64(2) {
		t.Errorf("parsedCount = %v, want 2", body["parsedCount"])
	}

	rec, body = doJSON(t, srv, http.MethodGet, "/api/rankings/latest?category=아우터", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("latest status = %d", rec.Code)
	}
	if body["count"] != float64(2) {
		t.Fatalf("latest count = %v, want 2", body["count"])
	}
	rankings := body["rankings"].([]any)
	first := rankings[0].(map[string]any)
	if first["rank"] != float64(3) || first["product_name"] != "울 싱글 코트" {
		t.Errorf("first ranking = %v, want rank 3 울 싱글 코트", first)
	}
}

func TestImportRejectsEmptyAndUnparseable(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec, body := doJSON(t, srv, http.MethodPost, "/api/rankings/import", `{"messageText":""}`)
	if rec.Code != http.StatusBadRequest || body["success"] != false {
		t.Errorf("empty message: status=%d body=%v", rec.Code, body)
	}

	rec, body = doJSON(t, srv, http.MethodPost, "/api/rankings/import", `{"messageText":"순위 데이터 없는 메시지"}`)
	if rec.Code != http.StatusBadRequest || body["success"] != false {
		t.Errorf("unparseable message: status=%d body=%v", rec.Code, body)
	}
}

func TestImportSessionMarkers(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec, body := doJSON(t, srv, http.MethodPost, "/api/rankings/import", `{"messageText":"[시작]"}`)
	if rec.Code != http.StatusOK || body["message"] != "업데이트 세션 시작" {
		t.Fatalf("start marker: status=%d body=%v", rec.Code, body)
	}
	sessionID, _ := body["session_id"].(string)
	if sessionID == "" {
		t.Fatal("start marker response missing session_id")
	}

	payload, _ := json.Marshal(map[string]string{"messageText": sampleMessage})
	if rec, _ := doJSON(t, srv, http.MethodPost, "/api/rankings/import", string(payload)); rec.Code != http.StatusOK {
		t.Fatalf("batch import status = %d", rec.Code)
	}

	rec, body = doJSON(t, srv, http.MethodPost, "/api/rankings/import", `{"messageText":"[끝]"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("end marker status = %d body=%v", rec.Code, body)
	}
	if body["session_id"] != sessionID {
		t.Errorf("closed session = %v, want %s", body["session_id"], sessionID)
	}
}

func TestImportEndWithoutSession(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec, body := doJSON(t, srv, http.MethodPost, "/api/rankings/import", `{"messageText":"[끝]"}`)
	if rec.Code != http.StatusBadRequest || body["success"] != false {
		t.Errorf("end without session: status=%d body=%v", rec.Code, body)
	}
}

func TestWebhookDeduplicates(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	update, _ := json.Marshal(map[string]any{
		"message": map[string]any{
			"message_id": 42,
			"text":       sampleMessage,
			"date":       1748779200,
		},
	})

	rec, body := doJSON(t, srv, http.MethodPost, "/api/telegram/webhook", string(update))
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("webhook: status=%d body=%v", rec.Code, body)
	}
	if body["parsedCount"] != float64(2) {
		t.Errorf("parsedCount = %v, want 2", body["parsedCount"])
	}

	rec, body = doJSON(t, srv, http.MethodPost, "/api/telegram/webhook", string(update))
	if rec.Code != http.StatusOK {
		t.Fatalf("replayed webhook status = %d", rec.Code)
	}
	if body["message"] != "Already processed" {
		t.Errorf("replay response = %v, want Already processed", body)
	}

	// The replay must not have appended more rows.
	_, latest := doJSON(t, srv, http.MethodGet, "/api/rankings/latest", "")
	if latest["count"] != float64(2) {
		t.Errorf("latest count after replay = %v, want 2", latest["count"])
	}
}

func TestWebhookAlwaysAnswers200(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	for _, body := range []string{
		`not json`,
		`{"message":{"message_id":1,"text":""}}`,
		`{"message":{"message_id":2,"text":"순위 없는 잡담"}}`,
		`{"message":{"message_id":3,"text":"[끝]"}}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/telegram/webhook", strings.NewReader(body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("webhook body %q: status = %d, want 200", body, rec.Code)
		}
	}
}

func TestProductTrendsNotFound(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec, body := doJSON(t, srv, http.MethodGet,
		"/api/rankings/product-trends?product_link=https%3A%2F%2Fshop%2Fnope", "")
	if rec.Code != http.StatusNotFound || body["success"] != false {
		t.Errorf("unknown product: status=%d body=%v", rec.Code, body)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/rankings/product-trends", nil)
	rec2 := httptest.NewRecorder()
	srv.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("missing product_link: status = %d, want 400", rec2.Code)
	}
}

func TestExportAllCSV(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	payload, _ := json.Marshal(map[string]string{"messageText": sampleMessage})
	if rec, _ := doJSON(t, srv, http.MethodPost, "/api/rankings/import", string(payload)); rec.Code != http.StatusOK {
		t.Fatalf("import status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/rankings/export/all", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %s, want text/csv", ct)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, utf8BOM) {
		t.Error("csv body missing UTF-8 BOM")
	}
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(body, utf8BOM)), "\n")
	if lines[0] != "카테고리,순위,상품명,상품링크,순위상태,기록시간,메시지시간" {
		t.Errorf("csv header = %q", lines[0])
	}
	if len(lines) != 3 {
		t.Errorf("csv rows = %d, want header plus 2 records", len(lines))
	}
	if !strings.Contains(body, "울 싱글 코트") {
		t.Error("csv missing product row")
	}
}

func TestResetEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	payload, _ := json.Marshal(map[string]string{"messageText": sampleMessage})
	if rec, _ := doJSON(t, srv, http.MethodPost, "/api/rankings/import", string(payload)); rec.Code != http.StatusOK {
		t.Fatalf("import status = %d", rec.Code)
	}

	rec, body := doJSON(t, srv, http.MethodDelete, "/api/rankings/reset", "")
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("reset: status=%d body=%v", rec.Code, body)
	}

	_, latest := doJSON(t, srv, http.MethodGet, "/api/rankings/latest", "")
	if latest["count"] != float64(0) {
		t.Errorf("latest count after reset = %v, want 0", latest["count"])
	}
}

func TestDashboardServed(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %s, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "하시에 순위 트래커") {
		t.Error("dashboard body missing title")
	}
}
