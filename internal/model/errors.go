package model

import (
	"fmt"
	"strings"
)

// StructuralError reports required schema columns missing from a dataset at
// load time. It is the only fatal condition in the processing pipeline:
// malformed data cannot be silently processed.
type StructuralError struct {
	TableName      string
	MissingColumns []string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("dataset for table %q is missing required columns: %s",
		e.TableName, strings.Join(e.MissingColumns, ", "))
}

// StageWarning records a pipeline stage that could not fully apply. The run
// continues with the last valid snapshot; warnings are surfaced on the
// result, never raised as errors.
type StageWarning struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

func (w StageWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}
