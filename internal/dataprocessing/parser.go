package dataprocessing

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/filipkrasniqi/networkcovid/internal/errors"
)

// ParseWorkbook reads an XLSX workbook and returns its rows, header first,
// padded to the header width. Cell values are raw, so dates come back as
// Excel serial numbers unless stored as text.
//
// When sheet is empty the first sheet whose header holds any of keyColumns
// is used. Header matching is case-insensitive.
func ParseWorkbook(path, sheet string, logger *slog.Logger, keyColumns ...string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewParsingError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	var rows [][]string
	if sheet != "" {
		rows, err = f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, errors.NewKeyNotFoundError("sheet", sheet).WithContext("path", path)
		}
	} else {
		for _, name := range f.GetSheetList() {
			candidate, err := f.GetRows(name, excelize.Options{RawCellValue: true})
			if err != nil || len(candidate) == 0 {
				continue
			}
			if findColumn(candidate[0], keyColumns...) >= 0 {
				rows = candidate
				sheet = name
				break
			}
		}
		if rows == nil {
			return nil, errors.NewKeyNotFoundError("column", strings.Join(keyColumns, "|")).
				WithContext("path", path).
				WithContext("sheets", f.GetSheetList())
		}
	}

	if len(rows) < 2 {
		return nil, errors.NewEmptyResultError(fmt.Sprintf("sheet %s", sheet)).WithContext("path", path)
	}

	logger.Debug("Found data sheet",
		slog.String("sheet_name", sheet),
		slog.Int("total_rows", len(rows)))

	width := len(rows[0])
	for i, row := range rows {
		switch {
		case len(row) < width:
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		case len(row) > width:
			rows[i] = row[:width]
		}
	}

	return rows, nil
}
