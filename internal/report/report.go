package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/workfree/search-briefing/internal/models"
)

// Builder turns a merged result set into an attachment. Build is pure and
// deterministic for the same input ordering.
type Builder interface {
	Build(results []models.SearchResult) ([]byte, error)
	Extension() string
	ContentType() string
}

// Filename derives the attachment name from the keyword set and date,
// e.g. "search_results_go,cloud_20260831.csv".
func Filename(b Builder, keywords []string, now time.Time) string {
	return fmt.Sprintf("search_results_%s_%s.%s",
		strings.Join(keywords, ","), now.Format("20060102"), b.Extension())
}

// New returns the builder for format ("csv" or "xlsx"); unknown formats fall
// back to CSV.
func New(format string) Builder {
	if strings.EqualFold(format, "xlsx") {
		return XLSXBuilder{}
	}
	return CSVBuilder{}
}

var headers = []string{"Rank", "Provider", "Keyword", "Title", "URL", "Description"}
