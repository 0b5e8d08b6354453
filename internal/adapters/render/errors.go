package render

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrBadRecord = errors.New("bad series record")
)
