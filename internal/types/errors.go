package models

import (
	"errors"
	"fmt"
)

var (
	ErrFetchFailed        = errors.New("fetch failed")
	ErrMalformedData      = errors.New("malformed data")
	ErrNotFound           = errors.New("not found")
	ErrPayloadNotFound    = errors.New("payload not found")
	ErrIOFailure          = errors.New("io failure")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidIdentifier  = errors.New("invalid application identifier")
)

// IOError reports a local filesystem failure together with the path that
// caused it.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool {
	return target == ErrIOFailure
}
