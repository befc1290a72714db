package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const naverFixture = `<html><body>
<div class="total_wrap">
  <a class="link_tit" href="https://example.kr/1">첫 번째 결과</a>
  <div class="total_dsc">설명 텍스트</div>
</div>
<div class="total_wrap">
  <a class="link_tit" href="https://example.kr/2">두 번째 결과</a>
</div>
</body></html>`

func TestNaverProvider_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") != "골프" {
			t.Errorf("query = %q", r.URL.Query().Get("query"))
		}
		w.Write([]byte(naverFixture))
	}))
	defer srv.Close()

	p := NewNaverProvider(0)
	p.BaseURL = srv.URL

	results, err := p.Search(context.Background(), "골프", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "첫 번째 결과" || results[0].Description != "설명 텍스트" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	// Entries without a description are still results.
	if results[1].URL != "https://example.kr/2" || results[1].Description != "" {
		t.Errorf("unexpected second result: %+v", results[1])
	}
}
