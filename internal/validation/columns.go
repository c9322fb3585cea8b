package validation

import "scanadherence/internal/errors"

// MaxSheetNameLength is the longest sheet name Excel accepts
const MaxSheetNameLength = 31

// ColumnSet is anything that can report which of a set of columns it lacks
type ColumnSet interface {
	Missing(columns ...string) []string
}

// RequireColumns fails with a schema error naming every required column
// absent from table
func RequireColumns(sheet string, table ColumnSet, required []string) error {
	if missing := table.Missing(required...); len(missing) > 0 {
		return errors.NewSchemaError(sheet, missing)
	}
	return nil
}
