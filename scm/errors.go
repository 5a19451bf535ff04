package scm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownNode indicates a registry lookup of an undeclared node.
	ErrUnknownNode = errors.New("scm: unknown node")

	// ErrUnknownParamGroup indicates a lookup of a parameter-group key that no
	// equation owns.
	ErrUnknownParamGroup = errors.New("scm: unknown parameter group")

	// ErrMissingParent indicates that a parent value required by a
	// conditioned equation was not supplied.
	ErrMissingParent = errors.New("scm: missing parent value")

	// ErrShapeMismatch indicates values whose shapes are incompatible with the
	// node's dimension or with each other under the broadcast rule.
	ErrShapeMismatch = errors.New("scm: shape mismatch")
)

// shapeErrorf tags err as a shape problem of node while keeping the
// underlying sentinel reachable through errors.Is.
func shapeErrorf(node, op string, err error) error {
	return fmt.Errorf("scm: %s.%s: %w: %w", node, op, ErrShapeMismatch, err)
}

// nodeErrorf wraps err with node/op context.
func nodeErrorf(node, op string, err error) error {
	return fmt.Errorf("scm: %s.%s: %w", node, op, err)
}
