package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportPrefix is the file name prefix of the ticket exports
const ExportPrefix = "CONSULTA_TLP_PCP_CS"

// ExportHeaders is the header row of a ticket export, in export order.
var ExportHeaders = []any{
	"Data Criacao", "VTA PK", "Raiz", "Tíquete Referência", "Tipo de Bilhete",
	"Tipo de Alarme", "Tipo de Afetação", "Tipo TA", "Tipo de Planta",
	"Código Localidade", "Sigla Estado", "Sigla Município", "Nome Município",
	"Bairro", "Código Site", "Sigla Site V2", "Empresa Manutenção",
	"Grupo Responsavel", "Status", "Data de Baixa", "Data Encerramento",
	"Observação Histórico",
}

// ExportFileName builds an export file name stamped with ts.
func ExportFileName(ts time.Time) string {
	return ExportPrefix + "_" + ts.Format("020106_1504") + ".xlsx"
}

// WriteWorkbook saves rows to dir/name as a single-sheet workbook and
// returns the path. A nil cell leaves the cell empty.
func WriteWorkbook(t *testing.T, dir, name string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name for row %d: %v", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("failed to write row %d: %v", i+1, err)
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook %s: %v", path, err)
	}
	return path
}

// WriteExport writes a ticket export stamped with ts containing the
// standard headers followed by rows.
func WriteExport(t *testing.T, dir string, ts time.Time, rows ...[]any) string {
	t.Helper()

	all := make([][]any, 0, len(rows)+1)
	all = append(all, ExportHeaders)
	all = append(all, rows...)
	return WriteWorkbook(t, dir, ExportFileName(ts), all)
}

// ExportRow returns a fully populated export row. Overrides replace values
// by header name.
func ExportRow(overrides map[string]any) []any {
	row := []any{
		"2024-01-15 08:30:00", 123456, 7890, "TQ-0001", "Corretivo",
		"Queda", "Total", "TA1", "Fibra",
		31000, "MG", "BHE", "Belo Horizonte",
		"Centro", "S001", "BHE01", "Manutel",
		"Grupo A", "Aberto", "", "2024-01-16 10:00:00",
		"Sem observação",
	}
	for i, header := range ExportHeaders {
		if v, ok := overrides[header.(string)]; ok {
			row[i] = v
		}
	}
	return row
}

// SetModTime sets both the access and modification time of path.
func SetModTime(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("failed to set mtime on %s: %v", path, err)
	}
}
