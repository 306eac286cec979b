package config

import "errors"

var (
	// ErrNilPointer indicates a nil target was passed to Load.
	ErrNilPointer = errors.New("config.nil_pointer")

	// ErrParsingConfig indicates environment variables could not be parsed into the struct.
	ErrParsingConfig = errors.New("config.parsing_failed")
)
