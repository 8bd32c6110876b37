package engine

import "errors"

var (
	// ErrInvalidState is returned when an operation is illegal for the
	// engine's current lifecycle state, e.g. Run on a Completed engine.
	ErrInvalidState = errors.New("invalid engine state")

	// ErrVersionMismatch is returned when a checkpoint file's format
	// version does not match; no partial load is attempted.
	ErrVersionMismatch = errors.New("checkpoint version mismatch")
)
