package ml

import (
	"errors"
	"fmt"
)

var (
	// ErrModelNotLoaded is returned when a prediction is requested before an
	// artifact has been loaded successfully.
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrSchemaMismatch is returned when a persisted artifact was trained
	// against a different feature contract than the running schema.
	ErrSchemaMismatch = errors.New("artifact schema mismatch")
)

// DataError reports a fatal problem in the training table. Malformed rows
// abort the training run, they are never skipped silently.
type DataError struct {
	Row    int
	Reason string
}

func (e *DataError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("training data error at row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("training data error: %s", e.Reason)
}
