// Package shared holds helpers used by more than one package. Test fixtures
// live in the testutil subpackage: captured slog output and generated export
// workbooks.
package shared
