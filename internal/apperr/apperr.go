// Package apperr defines the error taxonomy shared across the analytics
// core. Callers discriminate on Kind instead of matching error text.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// NotAuthorized: the request carries no resolvable identity.
	NotAuthorized Kind = iota + 1
	// SchemaMissing: a relation/table is absent. Recoverable by running
	// the schema migration; downgraded to a warning wherever core output
	// is still computable.
	SchemaMissing
	// UpstreamUnavailable: a soft dependency (rate source, suggestion
	// provider) failed. Always has a defined fallback.
	UpstreamUnavailable
	// ValidationFailed: malformed input, rejected before persistence.
	ValidationFailed
	// PersistenceFailed: a store write failed; the run is marked FAILURE.
	PersistenceFailed
)

func (k Kind) String() string {
	switch k {
	case NotAuthorized:
		return "not_authorized"
	case SchemaMissing:
		return "schema_missing"
	case UpstreamUnavailable:
		return "upstream_unavailable"
	case ValidationFailed:
		return "validation_failed"
	case PersistenceFailed:
		return "persistence_failed"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with an operation name and a kind.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether any error in err's chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// KindOf returns the kind of the first taxonomy error in the chain, or 0.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}
