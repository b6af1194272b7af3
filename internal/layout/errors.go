package layout

import "errors"

// Layout errors are logic errors reported to the caller; the engine never
// panics on them and never applies a partial mutation.
var (
	ErrDuplicateWindow        = errors.New("window already present in workspace")
	ErrWindowNotFound         = errors.New("window not found in workspace")
	ErrColumnOutOfBounds      = errors.New("column index out of bounds")
	ErrWindowIndexOutOfBounds = errors.New("window index out of bounds")
)
