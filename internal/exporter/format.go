package exporter

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"sigitm/internal/table"
)

// Format selects the output encoding of an export
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatXLSX  Format = "xlsx"
	FormatTable Format = "table"
)

// Formats lists the supported formats in help order
var Formats = []Format{FormatCSV, FormatJSON, FormatXLSX, FormatTable}

// ParseFormat resolves a format name, case-insensitively
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", name)
}

// jsonValue maps a cell to a JSON-encodable value. Missing becomes null and
// non-finite floats fall back to their text form.
func jsonValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return table.FormatCell(val)
		}
		return val
	case string, bool, int64, int:
		return val
	default:
		return table.FormatCell(val)
	}
}

// marshalRow encodes one row as a JSON object whose keys keep column order.
func marshalRow(names []string, row []any) ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(jsonValue(row[i]))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
