package dataprocessing

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sigitm/internal/table"
)

// ParseWorkbook reads one sheet of an OOXML workbook into a table. The first
// row is the header row. When sheet is empty the first sheet in workbook
// order is used.
//
// Cells keep the type the workbook stores: text becomes string, numbers
// become float64, booleans become bool and empty cells become nil. Raw values
// are read so number formats never turn a date serial into display text.
// A nil logger logs to slog.Default.
func ParseWorkbook(path, sheet string, logger *slog.Logger) (*table.Table, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	logger.Debug("Workbook sheet read",
		slog.String("file", path),
		slog.String("sheet", sheet),
		slog.Int("raw_rows", len(rows)))

	if len(rows) == 0 {
		return table.New(0), nil
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	headers := buildHeaders(rows[0], width)

	// Blank rows between records are dropped; GetRows already trims the
	// trailing ones.
	var dataRows []int
	for i := 1; i < len(rows); i++ {
		if !isBlankRow(rows[i]) {
			dataRows = append(dataRows, i)
		}
	}

	tbl := table.New(len(dataRows))
	for j, header := range headers {
		values := make([]any, len(dataRows))
		for k, i := range dataRows {
			raw := ""
			if j < len(rows[i]) {
				raw = rows[i][j]
			}
			v, err := readCell(f, sheet, j+1, i+1, raw)
			if err != nil {
				return nil, err
			}
			values[k] = v
		}
		if err := tbl.AddColumn(header, values); err != nil {
			return nil, fmt.Errorf("failed to build column %q: %w", header, err)
		}
	}

	logger.Info("Workbook parsed",
		slog.String("file", path),
		slog.String("sheet", sheet),
		slog.Int("rows", tbl.Len()),
		slog.Int("columns", tbl.Width()))

	return tbl, nil
}

// buildHeaders names every column position. Empty headers become
// "Unnamed: N" and repeated headers get a ".1", ".2" suffix.
func buildHeaders(row []string, width int) []string {
	headers := make([]string, width)
	seen := make(map[string]int, width)
	for j := 0; j < width; j++ {
		name := ""
		if j < len(row) {
			name = strings.TrimSpace(row[j])
		}
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(j)
		}

		if n, dup := seen[name]; dup {
			base := name
			for {
				n++
				candidate := base + "." + strconv.Itoa(n)
				if _, taken := seen[candidate]; !taken {
					seen[base] = n
					name = candidate
					break
				}
			}
		}
		seen[name] = 0
		headers[j] = name
	}
	return headers
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

// readCell converts a raw cell value to a typed cell using the stored cell type.
func readCell(f *excelize.File, sheet string, col, row int, raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}

	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, fmt.Errorf("invalid cell coordinates (%d,%d): %w", col, row, err)
	}
	cellType, err := f.GetCellType(sheet, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read cell type at %s: %w", ref, err)
	}

	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return raw, nil
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true"), nil
	case excelize.CellTypeError:
		return nil, nil
	case excelize.CellTypeDate:
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return ts, nil
		}
		if ts, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
			return ts, nil
		}
		return raw, nil
	default:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n, nil
		}
		return raw, nil
	}
}
