package weekgrid

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidHorizon = errors.New("invalid horizon")
)
