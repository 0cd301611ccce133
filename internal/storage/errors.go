package storage

import "errors"

// Sentinel errors for the storage package. Using sentinels instead of ad-hoc
// fmt.Errorf allows callers to match with errors.Is for reliable error handling.
var (
	// ErrPathRequired is returned when an operation is attempted with an empty path.
	ErrPathRequired = errors.New("path is required")
)
