package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPosition  = errors.New("invalid position")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidRules     = errors.New("invalid rules")
	ErrShipCount        = errors.New("not enough ships")
	ErrOverlap          = errors.New("ships overlap")
	ErrOutOfBounds      = errors.New("ship out of bounds")
)

// ValidationError describes why a fleet was rejected for a set of rules.
// Ship and Other are 1-based ship ids; Other is only set for overlaps.
type ValidationError struct {
	Kind  error
	Ship  int
	Other int
}

func (e *ValidationError) Error() string {
	switch {
	case e.Other > 0:
		return fmt.Sprintf("%v: ship %d and ship %d", e.Kind, e.Ship, e.Other)
	case e.Ship > 0:
		return fmt.Sprintf("%v: ship %d", e.Kind, e.Ship)
	default:
		return e.Kind.Error()
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}
