package ontology

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStoreClosed is returned by operations on a closed fact store
var ErrStoreClosed = errors.New("fact store is closed")

// ParseError reports a malformed document. Nothing from the document is
// added to the store when it is returned.
type ParseError struct {
	Format string
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Format)
	b.WriteString(" parse error")
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&b, ", column %d", e.Column)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// SerializationError reports a fact that cannot be written in the requested format
type SerializationError struct {
	Format string
	Triple *Triple
	Msg    string
}

func (e *SerializationError) Error() string {
	if e.Triple != nil {
		return fmt.Sprintf("cannot serialize %s as %s: %s", e.Triple, e.Format, e.Msg)
	}
	return fmt.Sprintf("cannot serialize as %s: %s", e.Format, e.Msg)
}

// QueryError reports a malformed pattern query
type QueryError struct {
	Query string
	Pos   int
	Msg   string
}

func (e *QueryError) Error() string {
	if e.Pos > 0 {
		return fmt.Sprintf("query error at offset %d: %s", e.Pos, e.Msg)
	}
	return "query error: " + e.Msg
}

// FieldError names one invalid request field
type FieldError struct {
	Field string
	Rule  string
}

// ValidationError reports an editor request with missing or invalid fields.
// No facts are added when it is returned.
type ValidationError struct {
	Op     string
	Fields []FieldError
	Err    error
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	if len(names) == 0 {
		return fmt.Sprintf("%s: invalid request", e.Op)
	}
	return fmt.Sprintf("%s: missing or invalid %s", e.Op, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return e.Err }

// LookupError reports a short name with no registry entry
type LookupError struct {
	Kind string
	Name string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// CycleError reports a cycle in the subclass relation.
// Path starts and ends with Node.
type CycleError struct {
	Node IRI
	Path []IRI
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, p := range e.Path {
		parts[i] = string(p)
	}
	return fmt.Sprintf("subclass cycle through %s: %s", e.Node, strings.Join(parts, " -> "))
}

// IsNotFound reports whether err is a LookupError
func IsNotFound(err error) bool {
	var le *LookupError
	return errors.As(err, &le)
}
