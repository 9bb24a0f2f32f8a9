package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"

	"sigitm/internal/table"
)

// DefaultSheetName names the sheet written by WriteXLSX
const DefaultSheetName = "data"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options configures an export
type Options struct {
	BOMPrefix bool   // Add UTF-8 BOM for Excel compatibility (CSV only)
	Limit     int    // Rows to write; zero or negative writes all
	SheetName string // XLSX sheet name, DefaultSheetName when empty
}

func (o Options) rowCount(tbl *table.Table) int {
	if o.Limit > 0 && o.Limit < tbl.Len() {
		return o.Limit
	}
	return tbl.Len()
}

// Writer renders normalized tables in the supported formats
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a new table writer
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// Write encodes tbl to w in the given format
func (w *Writer) Write(out io.Writer, format Format, tbl *table.Table, opts Options) error {
	switch format {
	case FormatCSV:
		return w.WriteCSV(out, tbl, opts)
	case FormatJSON:
		return w.WriteJSON(out, tbl, opts)
	case FormatXLSX:
		return w.WriteXLSX(out, tbl, opts)
	case FormatTable:
		return w.WriteTable(out, tbl, opts)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteFile creates (or truncates) path, creating parent directories, and
// writes tbl to it. A file that fails to encode is removed.
func (w *Writer) WriteFile(path string, format Format, tbl *table.Table, opts Options) error {
	w.logger.Info("Writing export file",
		slog.String("file_path", path),
		slog.String("format", string(format)),
		slog.Int("record_count", opts.rowCount(tbl)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := w.Write(file, format, tbl, opts); err != nil {
		file.Close()
		if rmErr := os.Remove(path); rmErr != nil {
			w.logger.Warn("Failed to remove partial export file",
				slog.String("file_path", path),
				slog.String("error", rmErr.Error()))
		}
		return err
	}
	return file.Close()
}

// WriteCSV writes a header row followed by the data rows. Missing cells
// are written as empty fields.
func (w *Writer) WriteCSV(out io.Writer, tbl *table.Table, opts Options) error {
	if opts.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(tbl.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	record := make([]string, tbl.Width())
	for i := 0; i < opts.rowCount(tbl); i++ {
		for j, v := range tbl.Row(i) {
			record[j] = table.FormatCell(v)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON writes the rows as a JSON array of objects keyed by column name
// in column order. Missing cells are null.
func (w *Writer) WriteJSON(out io.Writer, tbl *table.Table, opts Options) error {
	names := tbl.ColumnNames()
	n := opts.rowCount(tbl)

	if _, err := io.WriteString(out, "["); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		obj, err := marshalRow(names, tbl.Row(i))
		if err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
		sep := "\n  "
		if i > 0 {
			sep = ",\n  "
		}
		if _, err := io.WriteString(out, sep); err != nil {
			return err
		}
		if _, err := out.Write(obj); err != nil {
			return err
		}
	}
	closing := "]\n"
	if n > 0 {
		closing = "\n]\n"
	}
	_, err := io.WriteString(out, closing)
	return err
}

// WriteXLSX writes a single-sheet workbook using the excelize stream writer.
// Missing cells are left empty.
func (w *Writer) WriteXLSX(out io.Writer, tbl *table.Table, opts Options) error {
	sheet := opts.SheetName
	if sheet == "" {
		sheet = DefaultSheetName
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]any, tbl.Width())
	for j, name := range tbl.ColumnNames() {
		header[j] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i := 0; i < opts.rowCount(tbl); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, tbl.Row(i)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// cellEscaper keeps free text on one tabwriter cell.
var cellEscaper = strings.NewReplacer(
	"\t", `\t`,
	"\n", `\n`,
	"\r", `\r`,
	"\v", `\v`,
	"\f", `\f`,
)

// WriteTable writes an aligned plain-text preview for terminals. Tabs and
// line breaks inside cells are shown as escapes.
func (w *Writer) WriteTable(out io.Writer, tbl *table.Table, opts Options) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	writeLine := func(cells []string) {
		for j, c := range cells {
			if j > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cellEscaper.Replace(c))
		}
		fmt.Fprintln(tw)
	}

	writeLine(tbl.ColumnNames())
	cells := make([]string, tbl.Width())
	for i := 0; i < opts.rowCount(tbl); i++ {
		for j, v := range tbl.Row(i) {
			if v == nil {
				cells[j] = "-"
			} else {
				cells[j] = table.FormatCell(v)
			}
		}
		writeLine(cells)
	}

	if n := opts.rowCount(tbl); n < tbl.Len() {
		fmt.Fprintf(tw, "(%d of %d rows)\n", n, tbl.Len())
	}
	return tw.Flush()
}
