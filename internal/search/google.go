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

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// GoogleProvider scrapes Google web search results. Extraction is
// best-effort: markup drift yields fewer (or zero) results, never an error.
type GoogleProvider struct {
	Client *http.Client
	// BaseURL overrides the search endpoint, for tests.
	BaseURL string
}

func NewGoogleProvider(timeout time.Duration) *GoogleProvider {
	return &GoogleProvider{Client: &http.Client{Timeout: timeout}}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) Search(ctx context.Context, keyword string, limit int) ([]models.SearchResult, error) {
	base := p.BaseURL
	if base == "" {
		base = "https://www.google.com/search"
	}
	searchURL := fmt.Sprintf("%s?q=%s&num=%d", base, url.QueryEscape(keyword), limit)

	doc, err := fetchDocument(ctx, p.Client, searchURL)
	if err != nil {
		return nil, fmt.Errorf("google search %q: %w", keyword, err)
	}

	var results []models.SearchResult
	doc.Find("div.g").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(results) >= limit {
			return false
		}
		title := strings.TrimSpace(sel.Find("h3").First().Text())
		href, _ := sel.Find("a").First().Attr("href")
		if title == "" || href == "" {
			return true
		}
		desc := strings.TrimSpace(sel.Find("div.VwiC3b, div.yXK7lf").First().Text())
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

// fetchDocument GETs the URL with the browser user agent and parses the body.
func fetchDocument(ctx context.Context, client *http.Client, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}
