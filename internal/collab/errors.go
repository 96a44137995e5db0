package collab

import (
	"errors"
	"fmt"
)

// Kind classifies a collaborator failure.
type Kind string

const (
	KindTransport   Kind = "transport"
	KindStatus      Kind = "status"
	KindDecode      Kind = "decode"
	KindApplication Kind = "application"
)

// Error is the normalized failure of a collaborator call.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s failure (HTTP %d): %s", e.Op, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s failure: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrMissingFileRef is returned by DeleteFile when neither an id nor a
// filename was given.
var ErrMissingFileRef = errors.New("file id or filename is required")

// ErrUnknownCategory is returned for menu and generation requests on a
// category the service does not serve.
var ErrUnknownCategory = errors.New("unknown field category")
