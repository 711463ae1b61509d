package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"RankTracker/internal/scanner"
)

const bestPageHTML = `<html><body><ul class="product-list">
<li><span class="product-brand">다른브랜드</span><span class="product-name">다른 코트</span><a href="https://www.wconcept.co.kr/Product/1"></a></li>
<li><span class="product-brand">하시에</span><span class="product-name">울 싱글 코트</span><a href="https://www.wconcept.co.kr/Product/2"></a></li>
<li><span class="product-brand">HACIE 하시에</span><span class="product-name">하프 코트</span><a href="https://www.wconcept.co.kr/Product/3"></a></li>
</ul></body></html>`

func TestScanExtractsBrandProducts(t *testing.T) {
	t.Parallel()
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(bestPageHTML))
	}))
	t.Cleanup(page.Close)

	s := NewWconceptScanner(page.Client(), "하시에", "")
	records, err := s.Scan(context.Background(), scanner.Request{
		SiteName:   "wconcept-best",
		Categories: []scanner.Category{{Name: "아우터", URL: page.URL}},
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (other brands filtered)", len(records))
	}
	// The list position is the rank, counting filtered items too.
	if records[0].Rank != 2 || records[0].ProductName != "울 싱글 코트" {
		t.Errorf("first record = %+v, want rank 2 울 싱글 코트", records[0])
	}
	if records[1].Rank != 3 || records[1].ProductLink != "https://www.wconcept.co.kr/Product/3" {
		t.Errorf("second record = %+v, want rank 3 product 3", records[1])
	}
	if records[0].Category != "아우터" {
		t.Errorf("category = %s, want 아우터", records[0].Category)
	}
}

func TestScanFallsBackToRenderEndpoint(t *testing.T) {
	t.Parallel()
	// The direct page renders client-side only, so it carries no product list.
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div id="app"></div></body></html>`))
	}))
	t.Cleanup(page.Close)

	var renderCalls int
	render := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		renderCalls++
		if r.URL.Query().Get("url") != page.URL {
			t.Errorf("render url param = %q, want %q", r.URL.Query().Get("url"), page.URL)
		}
		_, _ = w.Write([]byte(bestPageHTML))
	}))
	t.Cleanup(render.Close)

	s := NewWconceptScanner(page.Client(), "하시에", render.URL)
	records, err := s.Scan(context.Background(), scanner.Request{
		SiteName:   "wconcept-best",
		Categories: []scanner.Category{{Name: "아우터", URL: page.URL}},
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if renderCalls != 1 {
		t.Errorf("render calls = %d, want 1", renderCalls)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want 2 from rendered page", len(records))
	}
}

func TestScanRequiresCategories(t *testing.T) {
	t.Parallel()
	s := NewWconceptScanner(nil, "하시에", "")
	if _, err := s.Scan(context.Background(), scanner.Request{SiteName: "empty"}); err == nil {
		t.Fatal("expected error for empty category list")
	}
}
