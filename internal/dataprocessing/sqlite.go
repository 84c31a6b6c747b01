package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/filipkrasniqi/networkcovid/internal/errors"
)

// sqliteTimeLayout is how DATETIME values scanned by the driver are rendered.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// ReadSQLiteTable returns every row of table, header first, as strings.
// NULL becomes the empty string.
func ReadSQLiteTable(path, table string) ([][]string, error) {
	if !validIdentifier(table) {
		return nil, errors.NewAppValidationError(fmt.Sprintf("invalid table name %q", table))
	}

	db, err := sqlx.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, errors.NewStorageError("failed to open database", err).WithContext("path", path)
	}
	defer db.Close()

	var exists int
	if err := db.Get(&exists, `SELECT count(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?`, table); err != nil {
		return nil, errors.NewStorageError("failed to inspect database", err).WithContext("path", path)
	}
	if exists == 0 {
		return nil, errors.NewKeyNotFoundError("table", table).WithContext("path", path)
	}

	rows, err := db.Queryx(`SELECT * FROM "` + table + `"`)
	if err != nil {
		return nil, errors.NewStorageError("failed to query table", err).WithContext("table", table)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, errors.NewStorageError("failed to read columns", err).WithContext("table", table)
	}

	records := [][]string{header}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, errors.NewStorageError("failed to scan row", err).WithContext("table", table)
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = sqlValueString(v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to iterate rows", err).WithContext("table", table)
	}

	if len(records) < 2 {
		return nil, errors.NewEmptyResultError(fmt.Sprintf("table %s", table)).WithContext("path", path)
	}
	return records, nil
}

func sqlValueString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(sqliteTimeLayout)
	default:
		return fmt.Sprint(val)
	}
}

func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	}) < 0
}
