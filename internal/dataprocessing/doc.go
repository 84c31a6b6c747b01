// Package dataprocessing loads the KPI table and the cell-location table.
//
// Three on-disk formats are supported, selected by file extension:
//
//	.csv            header row, parsed with gota
//	.xlsx           first sheet holding the cell column (or a configured sheet)
//	.db, .sqlite    a configured table read through sqlx
//
// Every format is funnelled through a gota DataFrame so column types are
// detected the same way. Numeric columns other than the cell and timestamp
// columns become KPIs; missing numeric cells load as NaN.
//
// # Usage
//
//	table, err := dataprocessing.LoadKPITable("data/Milano_800_January_MRN.csv", opts)
//	if err != nil {
//	    return err
//	}
//	dataprocessing.Summarize(table).Print(os.Stdout)
//
// Failures carry the internal/errors taxonomy: a missing file is
// FILE_NOT_FOUND, a missing key column KEY_NOT_FOUND, a malformed timestamp
// PARSING and a database failure STORAGE.
package dataprocessing
