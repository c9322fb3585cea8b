package services

import "scanadherence/internal/workbook"

// WorkbookStore reads raw sheets from and writes summary sheets to a workbook
type WorkbookStore interface {
	SheetNames(path string) ([]string, error)
	ReadTable(path, sheet string) (*workbook.Table, error)
	ReplaceSheets(path string, sheets []workbook.Sheet) error
}

// excelStore is the xlsx-backed WorkbookStore
type excelStore struct{}

// NewExcelStore returns the WorkbookStore backed by xlsx files on disk
func NewExcelStore() WorkbookStore {
	return excelStore{}
}

func (excelStore) SheetNames(path string) ([]string, error) {
	return workbook.SheetNames(path)
}

func (excelStore) ReadTable(path, sheet string) (*workbook.Table, error) {
	return workbook.ReadTable(path, sheet)
}

func (excelStore) ReplaceSheets(path string, sheets []workbook.Sheet) error {
	return workbook.ReplaceSheets(path, sheets)
}
