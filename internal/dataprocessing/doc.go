// Package dataprocessing turns a ticket export workbook into a normalized
// table.
//
// ParseWorkbook reads the first sheet (or a named one) into a table.Table
// with typed cells. ExtractLoadTimestamp reads the DDMMYY_HHMM token from the
// export's file name. Normalizer then applies, in order:
//
//  1. header renames from ColumnMapping
//  2. load_date and load_datetime inserted at the front
//  3. date columns rewritten as "2006-01-02 15:04:05" text
//  4. identifier columns rewritten as integer text, zero treated as missing
//  5. missing-marker literals collapsed to nil
//  6. text columns stringified, followed by a second missing-marker pass
//
// Steps 3 and 4 are per column and fail soft: a column that cannot be
// converted is logged and left untouched while the rest of the run goes on.
package dataprocessing
