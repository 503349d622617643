// Package model provides the client for the external win-probability service.
package model

import "errors"

var (
	// ErrServiceUnavailable indicates the probability service is unreachable
	ErrServiceUnavailable = errors.New("model service unavailable")

	// ErrNoEstimate indicates the service holds no estimate for the outcome
	ErrNoEstimate = errors.New("no probability estimate for outcome")

	// ErrInvalidEstimate indicates the returned estimate is out of range
	ErrInvalidEstimate = errors.New("invalid probability estimate")
)
