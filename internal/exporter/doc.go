// Package exporter writes normalized tables as CSV, JSON, XLSX or an aligned
// text preview.
//
// Writer.Write encodes to any io.Writer; WriteFile creates the parent
// directories first. CSV output can carry a UTF-8 BOM so Excel detects the
// encoding of the accented column values.
package exporter
