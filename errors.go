package keel

import (
	"errors"
	"fmt"
)

// Kind classifies an error produced by the startup substrate.
type Kind int

const (
	// KindUnknown is reported for errors that did not originate here.
	KindUnknown Kind = iota
	// KindConfigNotFound means no configuration file exists for the environment.
	KindConfigNotFound
	// KindTemplate means placeholder expansion of the configuration text failed.
	KindTemplate
	// KindParse means the expanded configuration text is malformed.
	KindParse
	// KindDeserialize means a configuration section does not match the requested shape.
	KindDeserialize
	// KindComponent wraps a component provider's own construction error.
	KindComponent
	// KindCycle means a component requested itself, directly or transitively,
	// during its own construction.
	KindCycle
	// KindInternal means the type-erased component store returned a value of
	// the wrong concrete type. This is a programming defect, not a runtime
	// condition: the provider protocol guarantees type consistency per key.
	KindInternal
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindConfigNotFound:
		return "config not found"
	case KindTemplate:
		return "template"
	case KindParse:
		return "parse"
	case KindDeserialize:
		return "deserialize"
	case KindComponent:
		return "component"
	case KindCycle:
		return "cyclic dependency"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the unified application error. Key carries the configuration key,
// file path, or component tag the error relates to, when one is known.
type Error struct {
	Kind Kind
	Key  string
	msg  string
	err  error
}

// New creates an Error with a fixed message.
func New(kind Kind, key, msg string) *Error {
	return &Error{Kind: kind, Key: key, msg: msg}
}

// Wrap creates an Error around an underlying cause.
func Wrap(kind Kind, key string, err error) *Error {
	return &Error{Kind: kind, Key: key, err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.msg != "" && e.err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.err)
	case e.msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.msg)
	case e.err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.err)
	default:
		return e.Kind.String()
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.err
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindUnknown when the chain contains none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HasKind reports whether any *Error in err's chain carries kind k.
func HasKind(err error, k Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == k {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
