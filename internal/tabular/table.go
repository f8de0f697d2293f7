package tabular

import (
	"sort"
	"strings"
)

// Row maps an actual CSV column header to the cell value of one record.
// After ingestion every value is whitespace-trimmed and the empty string is
// the only representation of an absent value.
type Row map[string]string

// Get returns the trimmed cell under column, empty string when the column
// does not exist in this row.
func (r Row) Get(column string) string {
	if column == "" {
		return ""
	}

	return r[column]
}

// Table is an ordered sequence of rows sharing one column set. It is built
// once by the Ingestor, is JSON-serializable so it can live inside the
// session cache, and is treated as read-only by every later pipeline stage.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

func (t *Table) Len() int {
	return len(t.Rows)
}

func (t *Table) HasColumn(name string) bool {
	if name == "" {
		return false
	}

	for _, col := range t.Columns {
		if col == name {
			return true
		}
	}

	return false
}

// FromRecords rebuilds a Table from decoded row objects, e.g. the payload of
// the spreadsheet editor. The column set is the union over all records in
// stable (sorted) order, and the same normalization as CSV ingestion applies.
func FromRecords(records []map[string]string) *Table {
	colSet := map[string]struct{}{}
	for _, rec := range records {
		for k := range rec {
			colSet[k] = struct{}{}
		}
	}

	columns := make([]string, 0, len(colSet))
	for k := range colSet {
		columns = append(columns, k)
	}

	sort.Strings(columns)

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := make(Row, len(columns))
		for _, col := range columns {
			row[col] = strings.TrimSpace(rec[col])
		}

		rows = append(rows, row)
	}

	return &Table{
		Columns: columns,
		Rows:    rows,
	}
}
