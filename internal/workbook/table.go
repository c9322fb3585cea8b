package workbook

import "strings"

// Table is a sheet read as a header row followed by data rows
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]string
	// RowNumbers holds the 1-based sheet row of each data row
	RowNumbers []int

	index map[string]int
}

// NewTable builds a Table, trimming header names
func NewTable(sheet string, header []string, rows [][]string) *Table {
	t := &Table{
		Sheet:  sheet,
		Header: make([]string, len(header)),
		Rows:   rows,
		index:  make(map[string]int, len(header)),
	}
	t.RowNumbers = make([]int, len(rows))
	for i := range rows {
		t.RowNumbers[i] = i + 2
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		t.Header[i] = name
		// First occurrence wins on duplicate headers
		if _, ok := t.index[name]; !ok && name != "" {
			t.index[name] = i
		}
	}
	return t
}

// Has reports whether the header contains column
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Missing returns the columns absent from the header, in argument order
func (t *Table) Missing(columns ...string) []string {
	var missing []string
	for _, c := range columns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Value returns the cell of row under column. Short rows yield "".
func (t *Table) Value(row []string, column string) string {
	i, ok := t.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// RowNumber returns the sheet row of data row i
func (t *Table) RowNumber(i int) int {
	if i < len(t.RowNumbers) {
		return t.RowNumbers[i]
	}
	return i + 2
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Sheet is a sheet to be written: a header and its rows.
// nil cells are written empty.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}
