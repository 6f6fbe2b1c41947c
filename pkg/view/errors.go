package view

import (
	"errors"
	"fmt"
)

// ErrInvalidInput matches every InvalidInputError.
var ErrInvalidInput = errors.New("view: invalid input")

// InvalidInputError reports registration or configuration input with the
// wrong shape: a variables value that is not a mapping or struct, or a
// template path that is not a string.
type InvalidInputError struct {
	// Field names the offending input, e.g. "variables" or a config key.
	Field string
	// Got describes what was received.
	Got string
	// Want describes the accepted shapes.
	Want string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("view: invalid %s; must be %s, %s received", e.Field, e.Want, e.Got)
}

// Is lets errors.Is match ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// TypeName describes v for InvalidInputError.Got.
func TypeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
