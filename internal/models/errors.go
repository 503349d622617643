package models

import "errors"

// Custom errors
var (
	ErrInvalidPrice         = errors.New("invalid price: decimal odds must be greater than 1.0")
	ErrIncompleteMarket     = errors.New("incomplete market: at least 2 outcomes required")
	ErrInsufficientData     = errors.New("insufficient data: no source provided a usable two-sided quote")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrNotFound             = errors.New("record not found")
	ErrDuplicateKey         = errors.New("duplicate key violation")
)
