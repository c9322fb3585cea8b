package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scanadherence/internal/errors"
)

// workbookExtensions are the formats excelize can read and write back
var workbookExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
}

// FileValidator checks workbook files before a run touches them
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return errors.NewNotFoundError("file "+path).WithContext("file", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return errors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbook checks that path is an existing, writable xlsx workbook.
// Summary sheets are written back in place, so the directory must accept
// the temporary file the writer renames over the original.
func (v *FileValidator) ValidateWorkbook(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !workbookExtensions[ext] {
		v.logger.Error("File is not an xlsx workbook",
			slog.String("file", path),
			slog.String("extension", ext))
		return errors.NewAppValidationError(fmt.Sprintf("file %s is not an xlsx workbook (extension: %s)", path, ext))
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Refusing temporary Excel lock file",
			slog.String("file", path))
		return errors.NewAppValidationError(fmt.Sprintf("file %s is a temporary Excel file", path))
	}

	return v.validateWritableDirectory(filepath.Dir(path))
}

// validateWritableDirectory verifies dir accepts new files
func (v *FileValidator) validateWritableDirectory(dir string) error {
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Workbook directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewStorageError(fmt.Sprintf("directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(testFile)
	return nil
}

// ValidateSheetNames checks that the input sheet exists among sheets and
// that no output sheet would overwrite it
func (v *FileValidator) ValidateSheetNames(sheets []string, input string, outputs ...string) error {
	found := false
	for _, s := range sheets {
		if s == input {
			found = true
			break
		}
	}
	if !found {
		v.logger.Error("Input sheet not found",
			slog.String("sheet", input),
			slog.Any("available", sheets))
		return errors.NewNotFoundError("sheet "+input).WithContext("sheet", input)
	}

	for _, out := range outputs {
		if out == input {
			return errors.NewAppValidationError(fmt.Sprintf("output sheet %q would overwrite the input sheet", out))
		}
		if len([]rune(out)) > MaxSheetNameLength {
			return errors.NewAppValidationError(
				fmt.Sprintf("output sheet %q exceeds %d characters", out, MaxSheetNameLength))
		}
	}
	return nil
}
