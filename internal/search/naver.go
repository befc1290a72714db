package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/workfree/search-briefing/internal/models"
)

// NaverProvider scrapes Naver web search results.
type NaverProvider struct {
	Client *http.Client
	// BaseURL overrides the search endpoint, for tests.
	BaseURL string
}

func NewNaverProvider(timeout time.Duration) *NaverProvider {
	return &NaverProvider{Client: &http.Client{Timeout: timeout}}
}

func (p *NaverProvider) Name() string { return "naver" }

func (p *NaverProvider) Search(ctx context.Context, keyword string, limit int) ([]models.SearchResult, error) {
	base := p.BaseURL
	if base == "" {
		base = "https://search.naver.com/search.naver"
	}
	searchURL := fmt.Sprintf("%s?query=%s&where=web&sm=top_hty&fbm=0&ie=utf8",
		base, url.QueryEscape(keyword))

	doc, err := fetchDocument(ctx, p.Client, searchURL)
	if err != nil {
		return nil, fmt.Errorf("naver search %q: %w", keyword, err)
	}

	var results []models.SearchResult
	doc.Find("div.total_wrap").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(results) >= limit {
			return false
		}
		link := sel.Find("a.link_tit").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return true
		}
		desc := strings.TrimSpace(sel.Find("div.total_dsc").First().Text())
		r := models.SearchResult{
			Rank:        len(results) + 1,
			Provider:    p.Name(),
			Keyword:     keyword,
			Title:       title,
			URL:         href,
			Description: desc,
		}
		r.Truncate()
		results = append(results, r)
		return true
	})
	return results, nil
}
