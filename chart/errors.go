package chart

import (
	"errors"
	"fmt"
)

// Kind classifies chart data and render failures.
type Kind int

const (
	// KindMissing means the data source itself could not be found.
	KindMissing Kind = iota + 1
	// KindMalformed means a field is absent or does not decode as an array.
	KindMalformed
	// KindEmpty means the data decoded fine but there is nothing to plot yet.
	KindEmpty
	// KindContainerNotFound means the target container is not on the page.
	KindContainerNotFound
	// KindLibraryFailure means the chart backend failed to build or update.
	KindLibraryFailure
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindMalformed:
		return "malformed"
	case KindEmpty:
		return "empty"
	case KindContainerNotFound:
		return "container not found"
	case KindLibraryFailure:
		return "library failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels for errors.Is checks against *DataError and *RenderError.
var (
	ErrMissing           = errors.New("chart data not found")
	ErrMalformed         = errors.New("chart data malformed")
	ErrEmpty             = errors.New("no chart data yet")
	ErrContainerNotFound = errors.New("chart container not found")
	ErrLibraryFailure    = errors.New("chart library failure")

	// ErrNotMounted is returned when updating a handle that never mounted.
	ErrNotMounted = errors.New("chart is not mounted")
)

func sentinel(k Kind) error {
	switch k {
	case KindMissing:
		return ErrMissing
	case KindMalformed:
		return ErrMalformed
	case KindEmpty:
		return ErrEmpty
	case KindContainerNotFound:
		return ErrContainerNotFound
	case KindLibraryFailure:
		return ErrLibraryFailure
	}
	return nil
}

// DataError is returned by Extract.
type DataError struct {
	Kind  Kind
	Field string // attribute or key that failed, empty for KindMissing
	Err   error
}

func (e *DataError) Error() string {
	msg := sentinel(e.Kind).Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Is(target error) bool {
	return target == sentinel(e.Kind)
}

// RenderError is returned by Renderer.Mount and Renderer.Update.
type RenderError struct {
	Kind      Kind
	Container string
	Err       error
}

func (e *RenderError) Error() string {
	msg := fmt.Sprintf("%s %q", sentinel(e.Kind).Error(), e.Container)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

func (e *RenderError) Is(target error) bool {
	return target == sentinel(e.Kind)
}

func newDataError(kind Kind, field string, err error) *DataError {
	return &DataError{Kind: kind, Field: field, Err: err}
}
