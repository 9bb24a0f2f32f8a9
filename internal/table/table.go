// Package table holds the in-memory tabular structure produced by the
// workbook parser and mutated in place by the normalization steps.
//
// Cells are untyped until normalized. A cell is one of nil (the missing
// marker), string, float64, bool or time.Time.
package table

import (
	"fmt"
	"strconv"
	"time"
)

// Column is a named sequence of cell values.
type Column struct {
	Name   string
	Values []any
}

// Table is an ordered set of columns whose values line up positionally.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New creates an empty table with the given number of rows.
func New(rows int) *Table {
	return &Table{
		index: make(map[string]int),
		rows:  rows,
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.columns)
}

// Columns returns the columns in order. The slice is shared with the table.
func (t *Table) Columns() []*Column {
	return t.columns
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// AddColumn appends a column. Values must have exactly Len() entries.
func (t *Table) AddColumn(name string, values []any) error {
	return t.InsertColumn(len(t.columns), name, values)
}

// InsertColumn inserts a column at position pos, shifting later columns right.
func (t *Table) InsertColumn(pos int, name string, values []any) error {
	if _, exists := t.index[name]; exists {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(values) != t.rows {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), t.rows)
	}
	if pos < 0 || pos > len(t.columns) {
		return fmt.Errorf("insert position %d out of range [0,%d]", pos, len(t.columns))
	}

	col := &Column{Name: name, Values: values}
	t.columns = append(t.columns, nil)
	copy(t.columns[pos+1:], t.columns[pos:])
	t.columns[pos] = col
	t.reindex()
	return nil
}

// InsertConstant inserts a column at pos where every row holds value.
func (t *Table) InsertConstant(pos int, name string, value any) error {
	values := make([]any, t.rows)
	for i := range values {
		values[i] = value
	}
	return t.InsertColumn(pos, name, values)
}

// Rename applies mapping to column names. Columns absent from the mapping
// keep their name. A rename that would collide with an existing column is
// skipped and reported in the returned slice.
func (t *Table) Rename(mapping map[string]string) []string {
	var skipped []string
	for _, c := range t.columns {
		target, ok := mapping[c.Name]
		if !ok || target == c.Name {
			continue
		}
		if _, taken := t.index[target]; taken {
			skipped = append(skipped, c.Name)
			continue
		}
		delete(t.index, c.Name)
		c.Name = target
		t.index[target] = -1
	}
	t.reindex()
	return skipped
}

// Row returns a copy of row i across all columns.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Values[i]
	}
	return row
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		t.index[c.Name] = i
	}
}

// FormatCell renders a cell the way exporters write it. Missing renders as "".
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(val)
	}
}
