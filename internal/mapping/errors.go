package mapping

import "errors"

var (
	ErrFieldNotFound = errors.New("mapping field not found")
	ErrFieldExists   = errors.New("mapping field already exists")
	ErrUnpaired      = errors.New("summary row and detail panel are not paired")
	ErrLocked        = errors.New("another mapping field is being edited")
	ErrNotEditing    = errors.New("no mapping field is being edited")
	ErrUnknownInput  = errors.New("unknown mapping field input")
	ErrInvalidValue  = errors.New("invalid input value")
)
