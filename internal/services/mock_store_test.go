package services

import (
	"github.com/stretchr/testify/mock"

	"scanadherence/internal/workbook"
)

// MockWorkbookStore is a mock for the WorkbookStore interface
type MockWorkbookStore struct {
	mock.Mock
}

func (m *MockWorkbookStore) SheetNames(path string) ([]string, error) {
	args := m.Called(path)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *MockWorkbookStore) ReadTable(path, sheet string) (*workbook.Table, error) {
	args := m.Called(path, sheet)
	table, _ := args.Get(0).(*workbook.Table)
	return table, args.Error(1)
}

func (m *MockWorkbookStore) ReplaceSheets(path string, sheets []workbook.Sheet) error {
	args := m.Called(path, sheets)
	return args.Error(0)
}
