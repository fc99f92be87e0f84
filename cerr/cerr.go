// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cerr defines the structured error type returned by every stage of
// the compiler frontend pipeline. Every failure is fatal to the compilation
// unit (the pipeline has no recoverable-error concept), so cerr.Error need
// only carry a Kind, a message, and the source location it was raised at.
package cerr

import (
	"fmt"

	"github.com/godoctor/langcore/source"
)

// Kind enumerates the error kinds from spec §7.
type Kind int

const (
	// SyntaxError is raised by the external parser; the core only
	// propagates it.
	SyntaxError Kind = iota
	// CSTShapeError is raised when a parse-tree node has a shape the
	// lowering pass does not recognize (including a structural token
	// leaking into an expression position).
	CSTShapeError
	// InvalidLiteral is raised by string literal decoding.
	InvalidLiteral
	// UnresolvedReference is raised when a value-graph phi has no
	// candidate binding in scope, or when resolving it runs into a
	// circular binding.
	UnresolvedReference
	// AmbiguousReference is raised when a value-graph phi's
	// deepest-depth candidate set is non-singleton after resolution.
	AmbiguousReference
	// MissingEffectAnnotation is raised when an effectful call appears
	// in the body of a function lacking an !effect/effect! annotation.
	MissingEffectAnnotation
	// FreeSymbolInFunction is an internal invariant violation raised
	// after closure conversion if a symbol escapes a function's inputs.
	FreeSymbolInFunction
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case CSTShapeError:
		return "CST shape error"
	case InvalidLiteral:
		return "invalid literal"
	case UnresolvedReference:
		return "unresolved reference"
	case AmbiguousReference:
		return "ambiguous reference"
	case MissingEffectAnnotation:
		return "missing effect annotation"
	case FreeSymbolInFunction:
		return "free symbol in function"
	default:
		return "unknown error"
	}
}

// Error is the structured error value returned from every pipeline stage.
type Error struct {
	Kind Kind
	Msg  string
	Pos  source.Position // zero value if no location is available
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// New constructs an Error at a known position.
func New(kind Kind, pos source.Position, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Is supports errors.Is(err, &cerr.Error{Kind: cerr.SyntaxError}) style
// matching on Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
