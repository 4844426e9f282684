package wire

import "errors"

var (
	ErrEmpty     = errors.New("wire: empty message")
	ErrNoObject  = errors.New("wire: no JSON object found")
	ErrNotObject = errors.New("wire: JSON value is not an object")
	ErrBadTime   = errors.New("wire: unrecognized timestamp")
)
