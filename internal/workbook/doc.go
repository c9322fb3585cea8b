// Package workbook reads raw scan sheets from xlsx workbooks and writes
// summary sheets back into them.
//
// Reads return cell values unformatted (excelize RawCellValue), so dates
// arrive as Excel serial numbers and numbers keep their full precision.
//
// Writes replace whole sheets. The workbook is saved to a temporary file
// next to the original and renamed over it, so a failed run leaves the
// original workbook untouched.
package workbook
