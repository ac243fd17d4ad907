package ingest

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedRecord  = errors.New("malformed outline record")
	ErrInvalidHierarchy = errors.New("invalid outline hierarchy")
)

// MalformedRecordError reports an outline line that does not decode into
// one to three fields. It aborts the import.
type MalformedRecordError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("line %d: %s: %s (%q)", e.Line, ErrMalformedRecord, e.Reason, e.Text)
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }

// InvalidHierarchyError reports a record that cannot be attached to the
// tree: no parent one level up, a second root, or a repeated identifier.
type InvalidHierarchyError struct {
	Line       int
	Identifier string
	Reason     string
}

func (e *InvalidHierarchyError) Error() string {
	if e.Identifier == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidHierarchy, e.Reason)
	}
	return fmt.Sprintf("line %d: %s: %s: %s", e.Line, ErrInvalidHierarchy, e.Identifier, e.Reason)
}

func (e *InvalidHierarchyError) Unwrap() error { return ErrInvalidHierarchy }
