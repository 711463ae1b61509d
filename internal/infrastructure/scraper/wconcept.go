package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"RankTracker/internal/domain"
	"RankTracker/internal/scanner"
)

// WconceptScanner crawls category best pages and keeps only the tracked
// brand's products. Best pages render their list server-side only partially;
// when the direct fetch yields nothing and a render endpoint is configured,
// the page is re-fetched through it.
type WconceptScanner struct {
	client    *http.Client
	brand     string
	renderURL string
}

var _ scanner.Scanner = (*WconceptScanner)(nil)

// NewWconceptScanner wires an HTTP client; renderURL is the optional
// rendered-HTML fallback endpoint (called as renderURL?url=<page>).
func NewWconceptScanner(client *http.Client, brand, renderURL string) *WconceptScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &WconceptScanner{client: client, brand: brand, renderURL: renderURL}
}

// Name identifies the strategy inside the registry.
func (s *WconceptScanner) Name() string {
	return "wconcept"
}

// Scan walks each category page and extracts the tracked brand's products in
// list order; the list position is the rank.
func (s *WconceptScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RankRecord, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for site %s", req.SiteName)
	}

	var results []domain.RankRecord
	for _, cat := range req.Categories {
		records, err := s.scanCategory(ctx, cat)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Name, err)
		}
		results = append(results, records...)
	}
	return results, nil
}

func (s *WconceptScanner) scanCategory(ctx context.Context, cat scanner.Category) ([]domain.RankRecord, error) {
	doc, err := s.fetchDocument(ctx, cat.URL)
	if err == nil {
		if records := s.extractRecords(doc, cat.Name); len(records) > 0 || s.renderURL == "" {
			return records, nil
		}
	} else if s.renderURL == "" {
		return nil, err
	}

	doc, err = s.fetchDocument(ctx, s.renderURL+"?url="+url.QueryEscape(cat.URL))
	if err != nil {
		return nil, fmt.Errorf("render fallback: %w", err)
	}
	return s.extractRecords(doc, cat.Name), nil
}

func (s *WconceptScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// Known product-card selectors; the site's markup shifts between releases.
var itemSelectors = []string{
	".product-item",
	".product-list > li",
	"[class*=\"ProductItem\"]",
	".brand-item",
}

func (s *WconceptScanner) extractRecords(doc *goquery.Document, category string) []domain.RankRecord {
	var items *goquery.Selection
	for _, selector := range itemSelectors {
		items = doc.Find(selector)
		if items.Length() > 0 {
			break
		}
	}
	if items == nil || items.Length() == 0 {
		return nil
	}

	var records []domain.RankRecord
	items.Each(func(i int, item *goquery.Selection) {
		brand := firstText(item, ".product-brand", ".brand-name", "[class*=\"BrandName\"]")
		if !matchesBrand(brand, s.brand) {
			return
		}

		name := firstText(item, ".product-title", ".product-name", "[class*=\"ProductName\"]")
		if name == "" {
			return
		}

		link, _ := item.Find("a").First().Attr("href")
		if link == "" {
			return
		}

		records = append(records, domain.RankRecord{
			Category:    category,
			Rank:        i + 1,
			ProductName: name,
			ProductLink: link,
		})
	})
	return records
}

func firstText(item *goquery.Selection, selectors ...string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(item.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func matchesBrand(text, brand string) bool {
	if text == "" || brand == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(brand))
}
