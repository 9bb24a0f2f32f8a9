package dataprocessing

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "sigitm/internal/errors"
	"sigitm/internal/table"
)

// Normalization steps, as reported in ColumnFailure.Step.
const (
	StepDates       = "dates"
	StepIdentifiers = "identifiers"
)

// ColumnFailure records a column transform that was skipped. The column is
// left exactly as it was before the step.
type ColumnFailure struct {
	Column string
	Step   string
	Err    error
}

// Report summarizes one normalization run.
type Report struct {
	RenamedColumns  int
	SkippedRenames  []string
	MissingReplaced int
	TextColumns     int
	ColumnFailures  []ColumnFailure
}

// Normalizer applies the column renames and value coercions to a parsed table.
type Normalizer struct {
	logger            *slog.Logger
	mapping           map[string]string
	dateColumns       []string
	identifierColumns []string
	dateLayouts       []string
}

// NewNormalizer creates a normalizer using the package's column tables.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		logger:            logger,
		mapping:           ColumnMapping,
		dateColumns:       DateColumns,
		identifierColumns: IdentifierColumns,
		dateLayouts:       SourceDateLayouts,
	}
}

// Normalize runs every step in order and mutates tbl in place. Failures of
// the date and identifier steps are per column and never abort the run; an
// error is returned only when the load timestamp columns cannot be inserted.
func (n *Normalizer) Normalize(tbl *table.Table, ts LoadTimestamp) (Report, error) {
	var report Report

	report.RenamedColumns, report.SkippedRenames = n.RenameColumns(tbl)

	if err := InsertLoadTimestamp(tbl, ts); err != nil {
		return report, err
	}

	report.ColumnFailures = append(report.ColumnFailures, n.NormalizeDateColumns(tbl)...)
	report.ColumnFailures = append(report.ColumnFailures, n.NormalizeIdentifierColumns(tbl)...)

	report.MissingReplaced = ReplaceMissing(tbl)
	report.TextColumns = NormalizeTextColumns(tbl)

	n.logger.Debug("Normalization complete",
		slog.Int("renamed_columns", report.RenamedColumns),
		slog.Int("missing_replaced", report.MissingReplaced),
		slog.Int("text_columns", report.TextColumns),
		slog.Int("column_failures", len(report.ColumnFailures)))

	return report, nil
}

// RenameColumns applies the header mapping and returns how many columns were
// renamed plus the names whose target was already taken.
func (n *Normalizer) RenameColumns(tbl *table.Table) (int, []string) {
	before := tbl.ColumnNames()
	skipped := tbl.Rename(n.mapping)
	for _, name := range skipped {
		n.logger.Warn("Column rename skipped, target already exists",
			slog.String("column", name),
			slog.String("target", n.mapping[name]))
	}

	renamed := 0
	for i, name := range tbl.ColumnNames() {
		if name != before[i] {
			renamed++
		}
	}
	return renamed, skipped
}

// InsertLoadTimestamp puts load_date at position 0 and load_datetime at
// position 1, constant across all rows.
func InsertLoadTimestamp(tbl *table.Table, ts LoadTimestamp) error {
	if err := tbl.InsertConstant(0, LoadDateColumn, ts.Date); err != nil {
		return apperrors.NewTransformError(LoadDateColumn, err)
	}
	if err := tbl.InsertConstant(1, LoadDateTimeColumn, ts.DateTime); err != nil {
		return apperrors.NewTransformError(LoadDateTimeColumn, err)
	}
	return nil
}

// NormalizeDateColumns rewrites each present date column as ISO date-time
// text. Unparseable cells become missing.
func (n *Normalizer) NormalizeDateColumns(tbl *table.Table) []ColumnFailure {
	var failures []ColumnFailure
	for _, name := range n.dateColumns {
		col, ok := tbl.Column(name)
		if !ok {
			continue
		}

		values := make([]any, len(col.Values))
		var stepErr error
		for i, v := range col.Values {
			out, err := n.coerceDate(v)
			if err != nil {
				stepErr = fmt.Errorf("row %d: %w", i, err)
				break
			}
			values[i] = out
		}

		if stepErr != nil {
			failures = append(failures, n.columnFailure(name, StepDates, stepErr))
			continue
		}
		col.Values = values
	}
	return failures
}

// NormalizeIdentifierColumns rewrites each present identifier column as
// integer text. Missing and zero values both end up missing.
func (n *Normalizer) NormalizeIdentifierColumns(tbl *table.Table) []ColumnFailure {
	var failures []ColumnFailure
	for _, name := range n.identifierColumns {
		col, ok := tbl.Column(name)
		if !ok {
			continue
		}

		values := make([]any, len(col.Values))
		var stepErr error
		for i, v := range col.Values {
			id, err := coerceIdentifier(v)
			if err != nil {
				stepErr = fmt.Errorf("row %d: %w", i, err)
				break
			}
			if id == 0 {
				values[i] = nil
			} else {
				values[i] = strconv.FormatInt(id, 10)
			}
		}

		if stepErr != nil {
			failures = append(failures, n.columnFailure(name, StepIdentifiers, stepErr))
			continue
		}
		col.Values = values
	}
	return failures
}

func (n *Normalizer) columnFailure(column, step string, err error) ColumnFailure {
	wrapped := apperrors.NewTransformError(column, err).WithContext("step", step)
	n.logger.Warn("Column transform failed, column left unchanged",
		slog.String("column", column),
		slog.String("step", step),
		slog.String("error", err.Error()))
	return ColumnFailure{Column: column, Step: step, Err: wrapped}
}

// coerceDate returns the ISO rendering of v, or nil when v is missing or
// cannot be read as a date. Only values of a kind no date can come from
// produce an error.
func (n *Normalizer) coerceDate(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return val.Format(ISODateTimeLayout), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, nil
		}
		ts, err := excelize.ExcelDateToTime(val, false)
		if err != nil {
			return nil, nil
		}
		return ts.Format(ISODateTimeLayout), nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		for _, layout := range n.dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.Format(ISODateTimeLayout), nil
			}
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported %T value %v in date column", v, v)
	}
}

// coerceIdentifier reads v as an integer. Missing reads as 0.
func coerceIdentifier(v any) (int64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return val, nil
	case float64:
		return integralFloat(val)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, nil
		}
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			return id, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", val)
		}
		return integralFloat(f)
	default:
		return 0, fmt.Errorf("unsupported %T value %v in identifier column", v, v)
	}
}

func integralFloat(f float64) (int64, error) {
	if math.IsNaN(f) {
		return 0, nil
	}
	if math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("value %v is not an integer", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("value %v overflows int64", f)
	}
	return int64(f), nil
}

// ReplaceMissing turns every missing-marker literal and NaN in the table into
// nil. It returns how many cells changed and is idempotent.
func ReplaceMissing(tbl *table.Table) int {
	replaced := 0
	for _, col := range tbl.Columns() {
		replaced += replaceMissingIn(col)
	}
	return replaced
}

func replaceMissingIn(col *table.Column) int {
	replaced := 0
	for i, v := range col.Values {
		if isMissingValue(v) {
			if v != nil {
				replaced++
			}
			col.Values[i] = nil
		}
	}
	return replaced
}

func isMissingValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		_, ok := MissingLiterals[val]
		return ok
	case float64:
		return math.IsNaN(val)
	default:
		return false
	}
}

// NormalizeTextColumns stringifies every text column and then clears the
// missing markers that stringification reintroduced. A column is text when it
// holds any string or mixes value kinds. It returns the number of text
// columns.
func NormalizeTextColumns(tbl *table.Table) int {
	count := 0
	for _, col := range tbl.Columns() {
		if !isTextColumn(col.Values) {
			continue
		}
		count++
		for i, v := range col.Values {
			col.Values[i] = stringifyCell(v)
		}
		replaceMissingIn(col)
	}
	return count
}

func isTextColumn(values []any) bool {
	var kind string
	for _, v := range values {
		if v == nil {
			continue
		}
		if _, ok := v.(string); ok {
			return true
		}
		k := fmt.Sprintf("%T", v)
		if kind == "" {
			kind = k
		} else if kind != k {
			return true
		}
	}
	return false
}

func stringifyCell(v any) string {
	if v == nil {
		return missingText
	}
	return table.FormatCell(v)
}
