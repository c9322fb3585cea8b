// Package shared holds helpers used by more than one package.
//
// The testutil subpackage builds xlsx fixture workbooks in a test temp dir
// and captures slog output for assertions:
//
//	path := testutil.NewWorkbook(t).
//	    AOSheet("AO_RawData", testutil.Series("AO01", "OD", testutil.Day(2024, 1, 1), 7, 3, 0.8)...).
//	    Save()
package shared
