package solution

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

var (
	// ErrConcurrentModification is returned when the solution file changed
	// on disk between reading it and writing an edit back.
	ErrConcurrentModification = errors.New("solution: file changed on disk during edit")
	// ErrClosed is returned by operations on a closed model.
	ErrClosed = errors.New("solution: model closed")
	// ErrNotFound is returned when an id names no entity of the expected kind.
	ErrNotFound = errors.New("solution: entity not found")
)

// CollaboratorError wraps a failure reported by an external collaborator
// such as a package manager or a project command.
type CollaboratorError struct {
	Collaborator string
	Op           string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("solution: %s %s: %v", e.Collaborator, e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Step is one sub-step of a multi-step operation that failed.
type Step struct {
	Description string
	Err         error
}

// PartialError reports an operation that was applied with some sub-steps
// failing. Nothing is rolled back.
type PartialError struct {
	Op     string
	Total  int
	Failed []Step
	err    error
}

func (e *PartialError) add(desc string, err error) {
	e.Failed = append(e.Failed, Step{Description: desc, Err: err})
	e.err = multierr.Append(e.err, err)
}

func (e *PartialError) Error() string {
	descs := make([]string, 0, len(e.Failed))
	for _, s := range e.Failed {
		descs = append(descs, fmt.Sprintf("%s: %v", s.Description, s.Err))
	}
	return fmt.Sprintf("solution: %s: %d of %d steps failed: %s",
		e.Op, len(e.Failed), e.Total, strings.Join(descs, "; "))
}

// Unwrap exposes the individual step errors.
func (e *PartialError) Unwrap() []error {
	return multierr.Errors(e.err)
}

// orNil returns e when a step failed.
func (e *PartialError) orNil() error {
	if e == nil || len(e.Failed) == 0 {
		return nil
	}
	return e
}
