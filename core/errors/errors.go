package errors

import (
	stderrors "errors"
)

// Kind classifies why a state transition was rejected.
type Kind uint8

const (
	KindInternal Kind = iota
	// KindAuthorization: the caller lacks the required role.
	KindAuthorization
	// KindInvariant: an input or precondition violates a rule.
	KindInvariant
	// KindInsufficientResource: a balance, reserve or confirmation count is
	// too low.
	KindInsufficientResource
	// KindStateConflict: the target is already in the requested state.
	KindStateConflict
	// KindNotFound: the referenced entity does not exist.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindInvariant:
		return "invariant"
	case KindInsufficientResource:
		return "insufficient_resource"
	case KindStateConflict:
		return "state_conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a sentinel that carries its Kind.
type Error struct {
	kind Kind
	msg  string
}

// New returns a classified sentinel error.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Kind returns the classification of the sentinel.
func (e *Error) Kind() Kind { return e.kind }

type kinded interface {
	Kind() Kind
}

// KindOf walks the wrap chain and returns the first classification found.
// Unclassified errors are reported as KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var k kinded
	if stderrors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}
