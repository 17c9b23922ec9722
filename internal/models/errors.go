package models

import "errors"

var (
	// ErrNoSources is returned when a generation request carries nothing to
	// synthesize from.
	ErrNoSources     = errors.New("no sources provided")
	ErrUnknownFormat = errors.New("unknown output format")
)
