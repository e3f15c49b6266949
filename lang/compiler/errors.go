package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// CompileError is a single compile-time diagnostic: a lexical, syntactic or
// semantic error tied to a source line and, when available, the token text
// where it was detected.
type CompileError struct {
	Line    int
	Where   string // quoted token lexeme, or "end" at end of file; empty for lexer-only errors
	Message string
}

func (e *CompileError) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("[line %d] Error at %s: %s", e.Line, e.Where, e.Message)
}

// ErrorList collects every CompileError reported while compiling a single
// source. It is modeled on the standard library's go/scanner.ErrorList: an
// ordered slice of errors with a combined Error() rendering and an
// Unwrap() []error so callers can use errors.Is/As against any entry.
type ErrorList []*CompileError

// Add appends a new error to the list.
func (el *ErrorList) Add(line int, where, message string) {
	*el = append(*el, &CompileError{Line: line, Where: where, Message: message})
}

func (el ErrorList) Len() int      { return len(el) }
func (el ErrorList) Swap(i, j int) { el[i], el[j] = el[j], el[i] }
func (el ErrorList) Less(i, j int) bool {
	return el[i].Line < el[j].Line
}

// Sort orders the list by source line, stably.
func (el ErrorList) Sort() { sort.Stable(el) }

// Error renders every diagnostic, one per line.
func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	}
	var b strings.Builder
	for i, e := range el {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Error())
	}
	return b.String()
}

// Unwrap exposes every diagnostic for errors.Is/errors.As.
func (el ErrorList) Unwrap() []error {
	errs := make([]error, len(el))
	for i, e := range el {
		errs[i] = e
	}
	return errs
}

// Err returns nil if the list is empty, else the list itself as an error.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}
