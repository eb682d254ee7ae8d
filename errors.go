// Package svdmodel resolves a sparsely-parsed CMSIS-SVD device tree into
// a fully-expanded, validated model (§1, §2). See svdresolve for the
// entry point; this file holds the fatal error type every pipeline
// stage returns instead of panicking on malformed input (§7).
package svdmodel

import (
	"fmt"

	"github.com/sarchlab/svdmodel/internal/svd/diag"
)

// Error is a fatal pipeline failure: a diagnostic kind, the dotted
// element path where it occurred, and the underlying cause. It
// satisfies errors.Is/As via Unwrap so callers can test for a
// particular diag.Kind without string matching.
//
// Pipeline stages return *Error for anything in §7's fatal taxonomy;
// invariant violations that indicate a bug in this module rather than
// malformed input still panic, matching the surrounding codebase's
// style.
type Error struct {
	Kind diag.Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s at %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, &Error{Kind: diag.KindCycleException}) works without
// requiring the caller to also match Path/Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return true
}

// NewError builds a fatal pipeline error.
func NewError(kind diag.Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
