package reporter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"apidiff/internal/diff"
	"apidiff/internal/model"
)

const (
	sheetName  = "API Diff Results"
	tableName  = "APIDiffTable"
	tableStyle = "TableStyleLight14"

	minColumnWidth = 10
	maxColumnWidth = 80

	patternType  = "pattern"
	patternValue = 1
	// Fill colors for non-matching rows.
	errorBgColor    = "FF5900"
	mismatchBgColor = "FFEB9C"
)

var extraHeaders = []string{"Status", "Has Data", "Diff"}

// Write renders one row per case into a fresh workbook at path, one column
// per parameter plus status, data-presence and diff detail. Parent
// directories are created and any previous report is overwritten. The header
// row is written even for zero-case runs.
func Write(results []model.CaseResult, paramNames []string, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", sheetName)

	headers := append(append([]string{}, paramNames...), extraHeaders...)
	widths := make([]int, len(headers))
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		widths[i] = len(header)
	}

	errorStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: patternType, Pattern: patternValue, Color: []string{errorBgColor}},
	})
	mismatchStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: patternType, Pattern: patternValue, Color: []string{mismatchBgColor}},
	})

	for i, res := range results {
		row := i + 2
		detail := diff.Render(res.Entries)
		if res.Status == model.StatusError {
			detail = res.Detail
		}

		cells := make([]any, 0, len(headers))
		for _, name := range paramNames {
			cells = append(cells, res.Case[name])
		}
		cells = append(cells, res.Status, res.HasData, detail)

		for j, v := range cells {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheetName, cell, v)
			if w := len(fmt.Sprint(v)); w > widths[j] {
				widths[j] = w
			}
			switch res.Status {
			case model.StatusError:
				f.SetCellStyle(sheetName, cell, cell, errorStyle)
			case model.StatusMismatch:
				f.SetCellStyle(sheetName, cell, cell, mismatchStyle)
			}
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if w < minColumnWidth {
			w = minColumnWidth
		}
		if w > maxColumnWidth {
			w = maxColumnWidth
		}
		f.SetColWidth(sheetName, col, col, float64(w+2))
	}

	if len(results) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(headers), len(results)+1)
		f.AddTable(sheetName, &excelize.Table{
			Range:          fmt.Sprintf("A1:%s", last),
			Name:           tableName,
			StyleName:      tableStyle,
			ShowRowStripes: boolPtr(true),
		})
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	log.Infof("saved results to %s", path)
	return nil
}

// Summary prints the run totals to the console.
func Summary(results []model.CaseResult, duration time.Duration) {
	total := len(results)
	mismatched, errored := 0, 0
	for _, res := range results {
		switch res.Status {
		case model.StatusMismatch:
			mismatched++
		case model.StatusError:
			errored++
		}
	}

	fmt.Printf("\nrun summary\n")
	fmt.Printf("elapsed: %s\n", duration.Round(time.Millisecond))
	fmt.Printf("total cases: %d\n", total)
	if mismatched > 0 {
		fmt.Printf("\033[31mmismatched: %d\033[0m\n", mismatched)
	} else {
		fmt.Printf("mismatched: %d\n", mismatched)
	}
	if errored > 0 {
		fmt.Printf("\033[31merrored: %d\033[0m\n", errored)
	} else {
		fmt.Printf("errored: %d\n", errored)
	}
}

func boolPtr(b bool) *bool { return &b }
