package app

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoTrackedStages = errors.New("no tracked stages configured")
)
