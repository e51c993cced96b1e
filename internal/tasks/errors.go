package tasks

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("task not found")

	ErrTitleRequired   = fmt.Errorf("%w: title required", ErrInvalidInput)
	ErrIndexOutOfRange = fmt.Errorf("%w: index out of range", ErrInvalidInput)

	// Storage faults are recoverable: the board keeps serving its in-memory state.
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageCorrupt     = errors.New("storage corrupt")
)
