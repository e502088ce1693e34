package domain

import (
	"errors"
	"fmt"
)

// ResolutionError reports that the region hierarchy could not be read.
type ResolutionError struct {
	Identifier string
	Err        error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Identifier, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// QueryError reports that price observations could not be read.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("aggregate rates: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// HierarchyCycleError reports a region reachable from itself.
type HierarchyCycleError struct {
	Root string
	Slug string
}

func (e *HierarchyCycleError) Error() string {
	return fmt.Sprintf("region hierarchy cycle below %q at %q", e.Root, e.Slug)
}

// ValidationError reports an unusable caller-supplied value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// errMalformedRow marks rows that violate the read model's shape.
var errMalformedRow = errors.New("malformed row")

// IsResolution reports whether err is or wraps a ResolutionError.
func IsResolution(err error) bool {
	var target *ResolutionError
	return errors.As(err, &target)
}

// IsQuery reports whether err is or wraps a QueryError.
func IsQuery(err error) bool {
	var target *QueryError
	return errors.As(err, &target)
}

// IsHierarchyCycle reports whether err is or wraps a HierarchyCycleError.
func IsHierarchyCycle(err error) bool {
	var target *HierarchyCycleError
	return errors.As(err, &target)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsMalformedRow reports whether err was caused by a malformed data-source row.
func IsMalformedRow(err error) bool {
	return errors.Is(err, errMalformedRow)
}
