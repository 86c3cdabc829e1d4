package ast

import "fmt"

// SourcePosition locates a node in the original source.
type SourcePosition struct {
	File   string
	Line   int
	Column int
}

// IsZero returns true if the position is unknown.
func (p SourcePosition) IsZero() bool {
	return p.File == "" && p.Line == 0 && p.Column == 0
}

// String formats the position as file:line:column.
func (p SourcePosition) String() string {
	if p.IsZero() {
		return "<unknown>"
	}
	if p.Column == 0 {
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// InternalError reports a tree that violates the invariants the passes rely
// on. It always indicates a defect in the front end, the checker or an
// earlier pass, never a user error.
type InternalError struct {
	// Pass is the name of the pass that was running, if any.
	Pass string

	// Node is the offending node, if known.
	Node Node

	Message string
}

func (e *InternalError) Error() string {
	msg := "internal error"
	if e.Pass != "" {
		msg += " in " + e.Pass
	}
	if e.Node != nil {
		if pos := e.Node.Pos(); !pos.IsZero() {
			msg += " at " + pos.String()
		}
	}
	msg += ": " + e.Message
	if e.Node != nil {
		text := Sprint(e.Node)
		if len(text) > 120 {
			text = text[:117] + "..."
		}
		msg += " [" + text + "]"
	}
	return msg
}

// Fatalf aborts the current traversal with an *InternalError. The pass
// pipeline recovers it and returns it as an error.
func Fatalf(n Node, format string, args ...any) {
	panic(&InternalError{Node: n, Message: fmt.Sprintf(format, args...)})
}
