package asana

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrHTTPStatus = errors.New("unexpected http status")
)
