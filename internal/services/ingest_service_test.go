package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigitm/internal/config"
	"sigitm/internal/dataprocessing"
	apperrors "sigitm/internal/errors"
	"sigitm/internal/shared/testutil"
)

func newTestIngestor(t *testing.T, dir string) (*FileIngestor, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	cfg := config.IngestConfig{
		Directory:       dir,
		Prefix:          testutil.ExportPrefix,
		CreateDirectory: true,
	}
	return NewFileIngestor(cfg, logger, nil), handler
}

func column(t *testing.T, result ProcessingResult, name string) []any {
	t.Helper()
	require.NotNil(t, result.Table)
	col, ok := result.Table.Column(name)
	require.True(t, ok, "column %s missing", name)
	return col.Values
}

func TestNewFileIngestor_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Downloads")

	fi, handler := newTestIngestor(t, dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, fi.Directory())
	assert.Equal(t, testutil.ExportPrefix, fi.Prefix())
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "does not exist")
}

func TestFileIngestor_LocateLatest(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)

	older := testutil.WriteExport(t, dir, time.Date(2026, 1, 3, 9, 0, 0, 0, time.UTC))
	newer := testutil.WriteExport(t, dir, time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC))
	other := testutil.WriteWorkbook(t, dir, "OTHER_040126_1212.xlsx", [][]any{{"a"}})
	testutil.SetModTime(t, older, base)
	testutil.SetModTime(t, newer, base.Add(time.Minute))
	testutil.SetModTime(t, other, base.Add(time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, testutil.ExportPrefix+"_dir"), 0755))

	fi, _ := newTestIngestor(t, dir)

	path, err := fi.LocateLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, newer, path, "modification time decides, not the name")
}

func TestFileIngestor_LocateLatest_TieKeepsFirstName(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Now().Add(-time.Hour)

	b := testutil.WriteExport(t, dir, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	a := testutil.WriteExport(t, dir, time.Date(2026, 1, 4, 9, 0, 0, 0, time.UTC))
	testutil.SetModTime(t, a, mtime)
	testutil.SetModTime(t, b, mtime)

	fi, _ := newTestIngestor(t, dir)

	path, err := fi.LocateLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, path)
}

func TestFileIngestor_LocateLatest_NoFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteWorkbook(t, dir, "unrelated.xlsx", [][]any{{"a"}})
	fi, _ := newTestIngestor(t, dir)

	_, err := fi.LocateLatest(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNoFilesFound))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestFileIngestor_LoadAndNormalize(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteExport(t, dir, time.Date(2026, 1, 4, 12, 12, 0, 0, time.UTC),
		testutil.ExportRow(nil),
		testutil.ExportRow(map[string]any{
			"Data Criacao":         "not a date",
			"VTA PK":               0,
			"Raiz":                 nil,
			"Observação Histórico": "None",
		}),
	)
	fi, handler := newTestIngestor(t, dir)

	result := fi.LoadAndNormalize(context.Background(), path)

	require.True(t, result.Success, result.Message)
	assert.Equal(t, path, result.SourceFile)
	assert.Equal(t, 2, result.Table.Len())

	names := result.Table.ColumnNames()
	require.Len(t, names, len(dataprocessing.ColumnMapping)+2)
	assert.Equal(t, dataprocessing.LoadDateColumn, names[0])
	assert.Equal(t, dataprocessing.LoadDateTimeColumn, names[1])
	assert.Equal(t, "data_criacao", names[2])

	assert.Equal(t, []any{"2026-01-04", "2026-01-04"}, column(t, result, dataprocessing.LoadDateColumn))
	assert.Equal(t, []any{"2026-01-04 12:12", "2026-01-04 12:12"}, column(t, result, dataprocessing.LoadDateTimeColumn))
	assert.Equal(t, []any{"2024-01-15 08:30:00", nil}, column(t, result, "data_criacao"))
	assert.Equal(t, []any{nil, nil}, column(t, result, "data_de_baixa"))
	assert.Equal(t, []any{"123456", nil}, column(t, result, "vta_pk"))
	assert.Equal(t, []any{"7890", nil}, column(t, result, "raiz"))
	assert.Equal(t, []any{"31000", "31000"}, column(t, result, "codigo_localidade"))
	assert.Equal(t, []any{"Sem observação", nil}, column(t, result, "observacao_historico"))
	assert.Empty(t, result.Report.ColumnFailures)

	testutil.AssertNoErrors(t, handler)
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Export loaded")
	for _, r := range handler.GetRecordsByLevel(slog.LevelInfo) {
		if r.Message == "Workbook parsed" {
			assert.Equal(t, "ingestor", r.Attrs["component"], "parser logs through the ingestor logger")
		}
	}
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Workbook parsed")
}

func TestFileIngestor_LoadAndNormalize_ColumnFailureIsIsolated(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteExport(t, dir, time.Date(2026, 1, 4, 12, 12, 0, 0, time.UTC),
		testutil.ExportRow(map[string]any{"VTA PK": "ABC"}),
	)
	fi, handler := newTestIngestor(t, dir)

	result := fi.LoadAndNormalize(context.Background(), path)

	require.True(t, result.Success, result.Message)
	assert.Equal(t, []any{"ABC"}, column(t, result, "vta_pk"))
	assert.Equal(t, []any{"7890"}, column(t, result, "raiz"))
	require.Len(t, result.Report.ColumnFailures, 1)
	assert.Equal(t, "vta_pk", result.Report.ColumnFailures[0].Column)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Column transform failed")
}

func TestFileIngestor_LoadAndNormalize_Failures(t *testing.T) {
	dir := t.TempDir()

	noToken := testutil.WriteWorkbook(t, dir, testutil.ExportPrefix+".xlsx", [][]any{{"a"}, {"b"}})
	corrupt := filepath.Join(dir, testutil.ExportPrefix+"_040126_1212.xlsx")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a zip archive"), 0644))
	collision := testutil.WriteWorkbook(t, dir, "REPORT_040126_1212.xlsx",
		[][]any{{"load_date", "x"}, {"a", "b"}})

	tests := []struct {
		name    string
		path    string
		message string
	}{
		{"missing file", filepath.Join(dir, "CONSULTA_TLP_PCP_CS_010101_0101.xlsx"), "does not exist"},
		{"no timestamp in name", noToken, "date pattern not found"},
		{"unreadable workbook", corrupt, "failed to read workbook"},
		{"load column already present", collision, "load_date"},
	}

	fi, _ := newTestIngestor(t, dir)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := fi.LoadAndNormalize(context.Background(), tt.path)

			assert.False(t, result.Success)
			assert.Nil(t, result.Table)
			assert.Contains(t, result.Message, tt.message)
		})
	}
}

func TestFileIngestor_ProcessLatest(t *testing.T) {
	dir := t.TempDir()
	older := testutil.WriteExport(t, dir, time.Date(2026, 1, 3, 9, 0, 0, 0, time.UTC),
		testutil.ExportRow(nil))
	newer := testutil.WriteExport(t, dir, time.Date(2026, 1, 4, 12, 12, 0, 0, time.UTC),
		testutil.ExportRow(nil), testutil.ExportRow(nil))
	testutil.SetModTime(t, older, time.Now().Add(-2*time.Hour))
	testutil.SetModTime(t, newer, time.Now().Add(-time.Hour))

	fi, _ := newTestIngestor(t, dir)

	t.Run("latest when no path given", func(t *testing.T) {
		result := fi.ProcessLatest(context.Background(), "")
		require.True(t, result.Success, result.Message)
		assert.Equal(t, newer, result.SourceFile)
		assert.Equal(t, 2, result.Table.Len())
	})

	t.Run("explicit path wins", func(t *testing.T) {
		result := fi.ProcessLatest(context.Background(), older)
		require.True(t, result.Success, result.Message)
		assert.Equal(t, older, result.SourceFile)
		assert.Equal(t, []any{"2026-01-03"}, column(t, result, dataprocessing.LoadDateColumn))
	})
}

func TestFileIngestor_ProcessLatest_NoFiles(t *testing.T) {
	fi, handler := newTestIngestor(t, t.TempDir())

	result := fi.ProcessLatest(context.Background(), "")

	assert.False(t, result.Success)
	assert.Nil(t, result.Table)
	assert.Contains(t, result.Message, "no files starting with")
	testutil.AssertLogContains(t, handler, slog.LevelError, "Export processing failed")
}

func TestFileIngestor_DeleteLatest(t *testing.T) {
	dir := t.TempDir()
	older := testutil.WriteExport(t, dir, time.Date(2026, 1, 3, 9, 0, 0, 0, time.UTC))
	newer := testutil.WriteExport(t, dir, time.Date(2026, 1, 4, 9, 0, 0, 0, time.UTC))
	testutil.SetModTime(t, older, time.Now().Add(-2*time.Hour))
	testutil.SetModTime(t, newer, time.Now().Add(-time.Hour))

	fi, _ := newTestIngestor(t, dir)

	assert.True(t, fi.DeleteLatest(context.Background(), ""))
	_, err := os.Stat(newer)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(older)
	assert.NoError(t, err, "only the latest export is removed")

	assert.True(t, fi.DeleteLatest(context.Background(), older))
	assert.False(t, fi.DeleteLatest(context.Background(), ""), "directory is now empty")
}

func TestFileIngestor_DeleteLatest_MissingPath(t *testing.T) {
	fi, handler := newTestIngestor(t, t.TempDir())

	ok := fi.DeleteLatest(context.Background(), filepath.Join(fi.Directory(), "absent.xlsx"))

	assert.False(t, ok)
	testutil.AssertLogContains(t, handler, slog.LevelError, "Failed to delete export")
}

func TestFileIngestor_DeleteLatest_RefusesDirectory(t *testing.T) {
	fi, handler := newTestIngestor(t, t.TempDir())
	dir := filepath.Join(fi.Directory(), testutil.ExportPrefix+"_040126_1212.xlsx")
	require.NoError(t, os.Mkdir(dir, 0755))

	ok := fi.DeleteLatest(context.Background(), dir)

	assert.False(t, ok)
	info, err := os.Stat(dir)
	require.NoError(t, err, "directory must not be removed")
	assert.True(t, info.IsDir())
	testutil.AssertLogContains(t, handler, slog.LevelError, "Failed to delete export")
}
