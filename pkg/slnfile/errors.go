package slnfile

import "fmt"

// ParseError reports a line that opens a block but does not match the
// block grammar.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("slnfile: line %d: %s: %q", e.Line, e.Reason, e.Text)
}
