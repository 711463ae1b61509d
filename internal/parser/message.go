package parser

import (
	"strings"

	"RankTracker/internal/domain"
)

const (
	// DefaultSiteLabel prefixes every category header line
	// (e.g. "W컨셉 베스트 아우터").
	DefaultSiteLabel = "W컨셉 베스트"
	// DefaultBrandLabel is the tracked brand; only blocks opened by its
	// brand-marker line are kept.
	DefaultBrandLabel = "하시에"

	brandLabel       = "브랜드"
	rankLabel        = "순위"
	productNameLabel = "상품명"
	linkLabel        = "링크"
)

// Parser extracts rank records from pasted snapshot text. Parsing never
// fails: malformed input simply yields fewer (or zero) records.
type Parser struct {
	site  string
	brand string
}

// New builds a parser for the given site and brand labels; empty values fall
// back to the defaults.
func New(site, brand string) *Parser {
	if site == "" {
		site = DefaultSiteLabel
	}
	if brand == "" {
		brand = DefaultBrandLabel
	}
	return &Parser{site: site, brand: brand}
}

// Parse tokenizes the message line by line: category header lines open a new
// category segment, brand-marker lines matching the tracked brand open a new
// product block, and each block's lines are scanned for the labeled rank,
// product-name and link fields. Blocks missing a required field are dropped
// silently; content before the first header contributes nothing.
func (p *Parser) Parse(message string) []domain.RankRecord {
	lines := strings.Split(strings.ReplaceAll(message, "\r\n", "\n"), "\n")

	var (
		records  []domain.RankRecord
		category string
		block    []string
		inBlock  bool
	)

	flush := func() {
		if inBlock {
			if rec, ok := buildRecord(category, block); ok {
				records = append(records, rec)
			}
		}
		block = block[:0]
		inBlock = false
	}

	for _, line := range lines {
		if name, ok := p.categoryHeader(line); ok {
			flush()
			category = name
			continue
		}
		if p.brandMarker(line) {
			flush()
			// Blocks outside any category segment are discarded.
			inBlock = category != ""
			continue
		}
		if inBlock {
			block = append(block, line)
		}
	}
	flush()

	return records
}

// categoryHeader matches "<site> <category>" and captures the trimmed
// category name.
func (p *Parser) categoryHeader(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, p.site) {
		return "", false
	}
	rest := trimmed[len(p.site):]
	if rest == "" || !isSpace(rest[0]) {
		return "", false
	}
	name := strings.TrimSpace(rest)
	if name == "" {
		return "", false
	}
	return name, true
}

// brandMarker matches "브랜드 : <brand>" with tolerant colon spacing, but only
// for the tracked brand.
func (p *Parser) brandMarker(line string) bool {
	label, value, ok := labeledValue(line)
	return ok && label == brandLabel && strings.TrimSpace(value) == p.brand
}

// buildRecord scans the block's lines for the first occurrence of each
// required field.
func buildRecord(category string, block []string) (domain.RankRecord, bool) {
	rec := domain.RankRecord{Category: category}
	var haveRank, haveName, haveLink bool

	for _, line := range block {
		label, value, ok := labeledValue(line)
		if !ok {
			continue
		}
		switch label {
		case rankLabel:
			if haveRank {
				continue
			}
			if rank, ok := leadingInt(value); ok {
				rec.Rank = rank
				haveRank = true
			}
		case productNameLabel:
			if haveName {
				continue
			}
			if name := strings.TrimSpace(value); name != "" {
				rec.ProductName = name
				haveName = true
			}
		case linkLabel:
			if haveLink {
				continue
			}
			if link, ok := firstURL(value); ok {
				rec.ProductLink = link
				haveLink = true
			}
		}
	}

	if !haveRank || !haveName || !haveLink {
		return domain.RankRecord{}, false
	}
	return rec, true
}

// labeledValue splits a "label : value" line, tolerating any spacing around
// the colon. The value runs to the end of the line.
func labeledValue(line string) (label, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	idx := strings.Index(trimmed, ":")
	if idx < 1 {
		return "", "", false
	}
	label = strings.TrimSpace(trimmed[:idx])
	if label == "" {
		return "", "", false
	}
	return label, trimmed[idx+1:], true
}

// leadingInt parses the leading digit run of the value ("9", "9위" -> 9).
func leadingInt(value string) (int, bool) {
	s := strings.TrimSpace(value)
	n := 0
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	return n, true
}

// firstURL extracts the first http(s) substring of the line, cut at the next
// whitespace.
func firstURL(value string) (string, bool) {
	start := -1
	for _, scheme := range []string{"https://", "http://"} {
		if idx := strings.Index(value, scheme); idx >= 0 && (start == -1 || idx < start) {
			start = idx
		}
	}
	if start == -1 {
		return "", false
	}
	url := value[start:]
	if end := strings.IndexFunc(url, func(r rune) bool { return r == ' ' || r == '\t' }); end >= 0 {
		url = url[:end]
	}
	return strings.TrimSpace(url), true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}
