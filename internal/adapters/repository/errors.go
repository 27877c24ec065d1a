package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("assessment not found")
	ErrInvalidLimit = errors.New("invalid top limit")
	ErrUnavailable  = errors.New("assessment store unavailable")
)
