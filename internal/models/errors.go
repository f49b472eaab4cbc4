package models

import "errors"

var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrUnauthorized     = errors.New("access denied")
	ErrStoreUnavailable = errors.New("security store unavailable")
	ErrOperationFailed  = errors.New("security operation failed")
	ErrInvalidTimeframe = errors.New("invalid timeframe")
	ErrThreatNotFound   = errors.New("threat not found")
	ErrInvalidRequest   = errors.New("invalid request")
)
