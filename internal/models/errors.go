package models

import "errors"

// Custom errors
var (
	ErrUnknownMarketType = errors.New("unknown market type")
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateKey      = errors.New("duplicate key violation")
	ErrInvalidContext    = errors.New("invalid simulation context")
)
