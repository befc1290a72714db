package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/workfree/search-briefing/internal/models"
)

const sheetName = "Results"

// XLSXBuilder renders results as a single-sheet Excel workbook.
type XLSXBuilder struct{}

func (XLSXBuilder) Extension() string { return "xlsx" }
func (XLSXBuilder) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXBuilder) Build(results []models.SearchResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}
	for row, r := range results {
		values := []any{r.Rank, strings.ToUpper(r.Provider), r.Keyword, r.Title, r.URL, r.Description}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row+2, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
