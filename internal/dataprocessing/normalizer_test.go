package dataprocessing

import (
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sigitm/internal/errors"
	"sigitm/internal/shared/testutil"
	"sigitm/internal/table"
)

func newTable(t *testing.T, rows int, cols ...table.Column) *table.Table {
	t.Helper()
	tbl := table.New(rows)
	for _, c := range cols {
		require.NoError(t, tbl.AddColumn(c.Name, c.Values))
	}
	return tbl
}

func values(t *testing.T, tbl *table.Table, name string) []any {
	t.Helper()
	col, ok := tbl.Column(name)
	require.True(t, ok, "column %s missing", name)
	return col.Values
}

var sampleTimestamp = LoadTimestamp{
	Time:     time.Date(2026, 1, 4, 12, 12, 0, 0, time.UTC),
	Date:     "2026-01-04",
	DateTime: "2026-01-04 12:12",
}

func TestNormalizer_RenameColumns(t *testing.T) {
	tbl := newTable(t, 1,
		table.Column{Name: "VTA PK", Values: []any{1.0}},
		table.Column{Name: "Foo", Values: []any{"x"}},
		table.Column{Name: "Status", Values: []any{"open"}},
	)

	renamed, skipped := NewNormalizer(nil).RenameColumns(tbl)

	assert.Equal(t, 2, renamed)
	assert.Empty(t, skipped)
	assert.Equal(t, []string{"vta_pk", "Foo", "status"}, tbl.ColumnNames())
}

func TestNormalizer_RenameCollision(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	tbl := newTable(t, 1,
		table.Column{Name: "status", Values: []any{"a"}},
		table.Column{Name: "Status", Values: []any{"b"}},
	)

	renamed, skipped := NewNormalizer(logger).RenameColumns(tbl)

	assert.Equal(t, 0, renamed)
	assert.Equal(t, []string{"Status"}, skipped)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "rename skipped")
}

func TestInsertLoadTimestamp(t *testing.T) {
	tbl := newTable(t, 2, table.Column{Name: "a", Values: []any{1.0, 2.0}})

	require.NoError(t, InsertLoadTimestamp(tbl, sampleTimestamp))

	assert.Equal(t, []string{LoadDateColumn, LoadDateTimeColumn, "a"}, tbl.ColumnNames())
	assert.Equal(t, []any{"2026-01-04", "2026-01-04"}, values(t, tbl, LoadDateColumn))
	assert.Equal(t, []any{"2026-01-04 12:12", "2026-01-04 12:12"}, values(t, tbl, LoadDateTimeColumn))

	err := InsertLoadTimestamp(tbl, sampleTimestamp)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeTransform))
}

func TestNormalizer_DateColumns(t *testing.T) {
	tests := []struct {
		name string
		in   []any
		want []any
	}{
		{
			name: "iso text and garbage",
			in:   []any{"2024-01-01", "not a date", nil},
			want: []any{"2024-01-01 00:00:00", nil, nil},
		},
		{
			name: "day first text",
			in:   []any{"15/01/2024 08:30:00", "15/01/2024", "31-12-2023 23:59"},
			want: []any{"2024-01-15 08:30:00", "2024-01-15 00:00:00", "2023-12-31 23:59:00"},
		},
		{
			name: "ambiguous slash dates read day first",
			in:   []any{"01/02/2024", "03-04-2024 10:00", "12/31/2024"},
			want: []any{"2024-02-01 00:00:00", "2024-04-03 10:00:00", nil},
		},
		{
			name: "excel serials",
			in:   []any{45306.5, math.NaN(), ""},
			want: []any{"2024-01-15 12:00:00", nil, nil},
		},
		{
			name: "native times",
			in:   []any{time.Date(2024, 3, 1, 7, 5, 9, 0, time.UTC), "2024-03-01T07:05:09", "  "},
			want: []any{"2024-03-01 07:05:09", "2024-03-01 07:05:09", nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := newTable(t, len(tt.in), table.Column{Name: "data_criacao", Values: tt.in})

			failures := NewNormalizer(nil).NormalizeDateColumns(tbl)

			assert.Empty(t, failures)
			assert.Equal(t, tt.want, values(t, tbl, "data_criacao"))
		})
	}
}

func TestNormalizer_DateColumnFailureLeavesColumn(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	in := []any{"2024-01-01", true}
	tbl := newTable(t, 2,
		table.Column{Name: "data_de_baixa", Values: in},
		table.Column{Name: "data_encerramento", Values: []any{"2024-02-02", nil}},
	)

	failures := NewNormalizer(logger).NormalizeDateColumns(tbl)

	require.Len(t, failures, 1)
	assert.Equal(t, "data_de_baixa", failures[0].Column)
	assert.Equal(t, StepDates, failures[0].Step)
	assert.True(t, apperrors.IsType(failures[0].Err, apperrors.ErrTypeTransform))
	assert.Equal(t, []any{"2024-01-01", true}, values(t, tbl, "data_de_baixa"))
	assert.Equal(t, []any{"2024-02-02 00:00:00", nil}, values(t, tbl, "data_encerramento"))
	assert.True(t, handler.ContainsAttr("column", "data_de_baixa"))
}

func TestNormalizer_IdentifierColumns(t *testing.T) {
	tests := []struct {
		name string
		in   []any
		want []any
	}{
		{
			name: "floats with missing and zero",
			in:   []any{123.0, nil, 0.0, 456.0},
			want: []any{"123", nil, nil, "456"},
		},
		{
			name: "numeric text",
			in:   []any{"789", "12.0", " 5 ", ""},
			want: []any{"789", "12", "5", nil},
		},
		{
			name: "large keys keep every digit",
			in:   []any{9007199254740991.0, math.NaN(), "0", int64(42)},
			want: []any{"9007199254740991", nil, nil, "42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := newTable(t, len(tt.in), table.Column{Name: "vta_pk", Values: tt.in})

			failures := NewNormalizer(nil).NormalizeIdentifierColumns(tbl)

			assert.Empty(t, failures)
			assert.Equal(t, tt.want, values(t, tbl, "vta_pk"))
		})
	}
}

func TestNormalizer_IdentifierColumnFailureLeavesColumn(t *testing.T) {
	tests := []struct {
		name string
		in   []any
	}{
		{"fractional", []any{1.0, 2.5}},
		{"text", []any{1.0, "ABC"}},
		{"bool", []any{true, 1.0}},
		{"infinite", []any{math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := append([]any(nil), tt.in...)
			tbl := newTable(t, len(in), table.Column{Name: "raiz", Values: in})

			failures := NewNormalizer(nil).NormalizeIdentifierColumns(tbl)

			require.Len(t, failures, 1)
			assert.Equal(t, StepIdentifiers, failures[0].Step)
			assert.Equal(t, tt.in, values(t, tbl, "raiz"))
		})
	}
}

func TestReplaceMissing(t *testing.T) {
	tbl := newTable(t, 6,
		table.Column{Name: "a", Values: []any{"nan", "None", "", "NaT", "Foo", nil}},
		table.Column{Name: "b", Values: []any{1.0, math.NaN(), 0.0, "none", "NAN", false}},
	)

	replaced := ReplaceMissing(tbl)

	assert.Equal(t, 5, replaced)
	assert.Equal(t, []any{nil, nil, nil, nil, "Foo", nil}, values(t, tbl, "a"))
	assert.Equal(t, []any{1.0, nil, 0.0, "none", "NAN", false}, values(t, tbl, "b"))

	assert.Equal(t, 0, ReplaceMissing(tbl), "second pass changes nothing")
	assert.Equal(t, []any{nil, nil, nil, nil, "Foo", nil}, values(t, tbl, "a"))
}

func TestNormalizeTextColumns(t *testing.T) {
	tbl := newTable(t, 3,
		table.Column{Name: "text", Values: []any{"x", nil, "y"}},
		table.Column{Name: "mixed", Values: []any{1.5, "two", true}},
		table.Column{Name: "numbers", Values: []any{1.0, nil, 3.0}},
		table.Column{Name: "flags", Values: []any{true, false, nil}},
	)

	count := NormalizeTextColumns(tbl)

	assert.Equal(t, 2, count)
	assert.Equal(t, []any{"x", nil, "y"}, values(t, tbl, "text"))
	assert.Equal(t, []any{"1.5", "two", "true"}, values(t, tbl, "mixed"))
	assert.Equal(t, []any{1.0, nil, 3.0}, values(t, tbl, "numbers"))
	assert.Equal(t, []any{true, false, nil}, values(t, tbl, "flags"))
}

func TestNormalizer_Normalize(t *testing.T) {
	tbl := newTable(t, 3,
		table.Column{Name: "Data Criacao", Values: []any{"2024-01-15 08:30:00", "invalid", nil}},
		table.Column{Name: "VTA PK", Values: []any{123.0, nil, 0.0}},
		table.Column{Name: "Código Localidade", Values: []any{31000.0, 31000.0, "nan"}},
		table.Column{Name: "Observação Histórico", Values: []any{"ok", "None", ""}},
		table.Column{Name: "Foo", Values: []any{"keep", "NaT", "x"}},
	)

	report, err := NewNormalizer(nil).Normalize(tbl, sampleTimestamp)
	require.NoError(t, err)

	assert.Empty(t, report.ColumnFailures)
	assert.Equal(t, 4, report.RenamedColumns)
	assert.Equal(t, []string{
		LoadDateColumn, LoadDateTimeColumn,
		"data_criacao", "vta_pk", "codigo_localidade", "observacao_historico", "Foo",
	}, tbl.ColumnNames())

	assert.Equal(t, []any{"2026-01-04", "2026-01-04", "2026-01-04"}, values(t, tbl, LoadDateColumn))
	assert.Equal(t, []any{"2024-01-15 08:30:00", nil, nil}, values(t, tbl, "data_criacao"))
	assert.Equal(t, []any{"123", nil, nil}, values(t, tbl, "vta_pk"))
	assert.Equal(t, []any{"31000", "31000", nil}, values(t, tbl, "codigo_localidade"))
	assert.Equal(t, []any{"ok", nil, nil}, values(t, tbl, "observacao_historico"))
	assert.Equal(t, []any{"keep", nil, "x"}, values(t, tbl, "Foo"))
}

func TestNormalizer_NormalizeKeepsGoingAfterColumnFailure(t *testing.T) {
	tbl := newTable(t, 2,
		table.Column{Name: "VTA PK", Values: []any{1.5, 2.0}},
		table.Column{Name: "Raiz", Values: []any{10.0, nil}},
	)

	report, err := NewNormalizer(nil).Normalize(tbl, sampleTimestamp)
	require.NoError(t, err)

	require.Len(t, report.ColumnFailures, 1)
	assert.Equal(t, "vta_pk", report.ColumnFailures[0].Column)
	assert.Equal(t, []any{1.5, 2.0}, values(t, tbl, "vta_pk"))
	assert.Equal(t, []any{"10", nil}, values(t, tbl, "raiz"))
}
