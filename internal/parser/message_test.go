package parser

import "testing"

func TestParseSingleBlock(t *testing.T) {
	t.Parallel()

	message := "W컨셉 베스트 아우터\n\n브랜드 : 하시에\n순위 : 9\n상품명 : TEST JACKET\n링크 : https://example.com/Product/1"

	records := New("", "").Parse(message)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Category != "아우터" {
		t.Fatalf("unexpected category: %q", rec.Category)
	}
	if rec.Rank != 9 {
		t.Fatalf("unexpected rank: %d", rec.Rank)
	}
	if rec.ProductName != "TEST JACKET" {
		t.Fatalf("unexpected product name: %q", rec.ProductName)
	}
	if rec.ProductLink != "https://example.com/Product/1" {
		t.Fatalf("unexpected link: %q", rec.ProductLink)
	}
}

func TestParseMultipleCategories(t *testing.T) {
	t.Parallel()

	message := "W컨셉 베스트 아우터\n" +
		"\n" +
		"브랜드 : 하시에\n" +
		"순위 : 3\n" +
		"상품명 : CASHMERE COLLAR DOWN JACKET\n" +
		"링크 : https://example.com/Product/11\n" +
		"\n" +
		"브랜드: 하시에\n" +
		"순위: 17\n" +
		"상품명: WOOL COAT\n" +
		"링크: https://example.com/Product/12\n" +
		"\n" +
		"W컨셉 베스트 셔츠\n" +
		"\n" +
		"브랜드 : 하시에\n" +
		"순위 : 5\n" +
		"상품명 : STRIPE SHIRT\n" +
		"링크 : https://example.com/Product/21\n"

	records := New("", "").Parse(message)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	if records[0].Category != "아우터" || records[1].Category != "아우터" {
		t.Fatalf("first segment records carry wrong category: %+v", records[:2])
	}
	if records[2].Category != "셔츠" {
		t.Fatalf("second segment record carries wrong category: %+v", records[2])
	}
	if records[1].Rank != 17 || records[1].ProductName != "WOOL COAT" {
		t.Fatalf("colon-spacing tolerant block parsed wrong: %+v", records[1])
	}
}

func TestParseSkipsOtherBrands(t *testing.T) {
	t.Parallel()

	message := "W컨셉 베스트 아우터\n" +
		"브랜드 : 다른브랜드\n" +
		"순위 : 1\n" +
		"상품명 : OTHER PRODUCT\n" +
		"링크 : https://example.com/Product/99\n" +
		"브랜드 : 하시에\n" +
		"순위 : 4\n" +
		"상품명 : DOWN PARKA\n" +
		"링크 : https://example.com/Product/42\n"

	records := New("", "").Parse(message)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Rank != 4 || records[0].ProductLink != "https://example.com/Product/42" {
		t.Fatalf("wrong block retained: %+v", records[0])
	}
}

func TestParseDropsIncompleteBlocks(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		message string
	}{
		{
			name: "missing rank",
			message: "W컨셉 베스트 아우터\n브랜드 : 하시에\n" +
				"상품명 : NO RANK\n링크 : https://example.com/Product/1\n",
		},
		{
			name: "non-numeric rank",
			message: "W컨셉 베스트 아우터\n브랜드 : 하시에\n순위 : abc\n" +
				"상품명 : BAD RANK\n링크 : https://example.com/Product/1\n",
		},
		{
			name: "missing name",
			message: "W컨셉 베스트 아우터\n브랜드 : 하시에\n순위 : 2\n" +
				"링크 : https://example.com/Product/1\n",
		},
		{
			name: "missing link",
			message: "W컨셉 베스트 아우터\n브랜드 : 하시에\n순위 : 2\n" +
				"상품명 : NO LINK\n링크 : ftp://example.com/Product/1\n",
		},
	}

	for _, tc := range cases {
		if records := New("", "").Parse(tc.message); len(records) != 0 {
			t.Fatalf("%s: expected 0 records, got %d", tc.name, len(records))
		}
	}
}

func TestParseNoHeader(t *testing.T) {
	t.Parallel()

	// Brand blocks before any category header contribute nothing.
	message := "브랜드 : 하시에\n순위 : 9\n상품명 : ORPHAN\n링크 : https://example.com/Product/1\n"
	if records := New("", "").Parse(message); len(records) != 0 {
		t.Fatalf("expected 0 records, got %d", len(records))
	}

	if records := New("", "").Parse("completely unrelated text"); len(records) != 0 {
		t.Fatalf("expected 0 records for garbage input, got %d", len(records))
	}
}

func TestParseCRLFAndSuffixedRank(t *testing.T) {
	t.Parallel()

	message := "W컨셉 베스트 니트\r\n브랜드 : 하시에\r\n순위 : 12위\r\n상품명 : RIBBED KNIT\r\n링크 : https://example.com/Product/7 (신상)\r\n"

	records := New("", "").Parse(message)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Rank != 12 {
		t.Fatalf("suffixed rank parsed wrong: %d", records[0].Rank)
	}
	if records[0].ProductLink != "https://example.com/Product/7" {
		t.Fatalf("link not cut at whitespace: %q", records[0].ProductLink)
	}
}
