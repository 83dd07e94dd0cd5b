package model

import (
	"errors"
	"fmt"
)

// ErrBadOffsets indicates a record whose anchor offsets are negative or inverted.
var ErrBadOffsets = errors.New("anchor offsets are invalid")

// ErrMissingField builds the error returned for a record missing a required field.
func ErrMissingField(name string) error {
	return fmt.Errorf("missing required field %q", name)
}

// ErrBadColor builds the error returned for a color outside the palette.
func ErrBadColor(c string) error {
	return fmt.Errorf("color %q is not in the palette", c)
}
