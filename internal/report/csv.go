package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/workfree/search-briefing/internal/models"
)

// CSVBuilder renders results as UTF-8 CSV with a BOM so spreadsheet
// applications detect the encoding.
type CSVBuilder struct{}

func (CSVBuilder) Extension() string   { return "csv" }
func (CSVBuilder) ContentType() string { return "text/csv" }

func (CSVBuilder) Build(results []models.SearchResult) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\ufeff")

	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return nil, err
	}
	for _, r := range results {
		record := []string{
			strconv.Itoa(r.Rank),
			strings.ToUpper(r.Provider),
			r.Keyword,
			r.Title,
			r.URL,
			r.Description,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
