package workbook

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"scanadherence/internal/errors"
)

// ReplaceSheets writes sheets into the workbook at path, replacing any
// existing sheet of the same name. Other sheets are preserved. The file is
// only replaced once every sheet has been written.
func ReplaceSheets(path string, sheets []Sheet) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return errors.NewStorageError("failed to open workbook", err).WithContext("workbook", path)
	}
	defer f.Close()

	for _, sheet := range sheets {
		if err := writeSheet(f, sheet); err != nil {
			return errors.NewStorageError("failed to write sheet "+sheet.Name, err).
				WithContext("workbook", path).
				WithContext("sheet", sheet.Name)
		}
	}

	tmp := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.%s.xlsx", filepath.Base(path), uuid.NewString()[:8]))
	if err := f.SaveAs(tmp); err != nil {
		os.Remove(tmp)
		return errors.NewStorageError("failed to save workbook", err).WithContext("workbook", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.NewStorageError("failed to replace workbook", err).WithContext("workbook", path)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet) error {
	idx, err := f.GetSheetIndex(sheet.Name)
	if err != nil {
		return err
	}
	if idx >= 0 {
		if err := f.DeleteSheet(sheet.Name); err != nil {
			return err
		}
	}
	if _, err := f.NewSheet(sheet.Name); err != nil {
		return err
	}

	header := make([]interface{}, len(sheet.Header))
	for i, h := range sheet.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
		return err
	}

	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
			return err
		}
	}
	return nil
}
