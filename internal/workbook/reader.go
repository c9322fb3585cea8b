package workbook

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"scanadherence/internal/errors"
)

// ReadTable reads sheet from the workbook at path. The first row is the
// header; fully blank rows are dropped.
func ReadTable(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewStorageError("failed to open workbook", err).WithContext("workbook", path)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, errors.NewNotFoundError("sheet "+sheet).
			WithContext("sheet", sheet).
			WithContext("workbook", path)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.NewStorageError("failed to read sheet "+sheet, err).WithContext("workbook", path)
	}

	if len(rows) == 0 {
		return NewTable(sheet, nil, nil), nil
	}

	data := make([][]string, 0, len(rows)-1)
	numbers := make([]int, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		data = append(data, row)
		numbers = append(numbers, i+2)
	}
	table := NewTable(sheet, rows[0], data)
	table.RowNumbers = numbers
	return table, nil
}

// SheetNames lists the sheets of the workbook at path
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewStorageError("failed to open workbook", err).WithContext("workbook", path)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
