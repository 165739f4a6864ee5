package interpret

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when the request text is empty or whitespace.
var ErrEmptyInput = errors.New("interpret: empty input")

// NoMatchError is returned by the pattern rules when nothing matched.
type NoMatchError struct {
	Input string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("interpret: no pattern rule matches %q", e.Input)
}

// UnavailableError means the model backend could not be reached or timed
// out before producing a reply.
type UnavailableError struct {
	Backend string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("interpret: model backend %s unavailable: %v", e.Backend, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// OutputError means the model answered but the reply was not a usable
// command: not JSON, wrong shape, or schema-invalid. Raw keeps the reply
// verbatim for privileged diagnostics; Error() never renders it.
type OutputError struct {
	Backend string
	Raw     json.RawMessage
	Err     error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("interpret: model backend %s returned unusable output: %v", e.Backend, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }
