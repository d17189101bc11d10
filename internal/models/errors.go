package models

import "errors"

// Custom errors
var (
	ErrNotFound               = errors.New("record not found")
	ErrHistoryAlreadyAttached = errors.New("history already attached to entrant")
)
