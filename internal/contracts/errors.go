package contracts

import "errors"

var (
	// ErrInputUnavailable means the close panel is missing or empty; the run aborts
	ErrInputUnavailable = errors.New("required input unavailable")

	// ErrInsufficientHistory means an instrument has too few closes to evaluate;
	// it is skipped, not failed
	ErrInsufficientHistory = errors.New("insufficient price history")
)
