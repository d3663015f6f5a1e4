package topology

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrDuplicateID   = errors.New("duplicate node id")
	ErrDanglingEdge  = errors.New("edge references unknown node")
	ErrSelfLoop      = errors.New("edge connects a node to itself")
	ErrInvalidRecord = errors.New("invalid record")
	ErrDecodeFailed  = errors.New("snapshot decode failed")
)

// Error carries structured context for model diagnostics. Load never fails;
// it returns these as non-fatal diagnostics in the LoadReport.
type Error struct {
	Op     string // operation, e.g. "load", "decode"
	Entity string // "node" or "edge"
	ID     string // node id, or "source->target" for edges
	Index  int    // position in the inbound snapshot, -1 if not applicable
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	if e.Index >= 0 {
		return fmt.Sprintf("%s %s #%d: %v", e.Op, e.Entity, e.Index, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

func nodeError(op, id string, index int, cause error) error {
	return &Error{Op: op, Entity: "node", ID: id, Index: index, Cause: cause}
}

func edgeError(op string, e Edge, index int, cause error) error {
	return &Error{Op: op, Entity: "edge", ID: e.SourceID + "->" + e.TargetID, Index: index, Cause: cause}
}

// IsNotFound returns true if the error is a node-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}
