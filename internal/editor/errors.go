package editor

import "errors"

var (
	ErrUnknownCategory = errors.New("unknown field category")
	ErrNotGeneratable  = errors.New("field does not produce a completion file")
	ErrNoDataFile      = errors.New("no data file is attached to the mapping")
	ErrNoHandler       = errors.New("no handler for event")
	ErrInvalidFilter   = errors.New("invalid field filter")
	ErrClosed          = errors.New("editor is closed")
)
