package index

import "fmt"

// ErrorKind classifies the errors the index package returns from its
// construction-time API. Query-time methods on LazyIndex never return
// errors — they return sentinel values or block, per the façade's
// contract (see lazy.go).
type ErrorKind uint8

const (
	// InputInvalid indicates unusable input: a nil automaton or
	// vocabulary passed to New, or a Config that fails Validate.
	// Malformed automata and vocabularies (an out-of-range state, an
	// empty vocabulary, a transition table of the wrong shape) are
	// rejected earlier by automaton.New and vocab.New, which return plain
	// errors that carry no ErrorKind.
	InputInvalid ErrorKind = iota

	// StateOutOfBounds indicates a caller passed a state id outside
	// [0, numStates) to a façade method that validates its input
	// (AwaitState). GetNextState/GetNextInstruction never return
	// this; they treat it as "no transition" per the spec's sentinel
	// contract instead.
	StateOutOfBounds

	// CacheFull indicates an insert was rejected because the cache
	// reached its configured capacity and eviction itself failed —
	// this should not happen with the LRU cache backing this package,
	// since it evicts rather than rejects, but the kind is kept for
	// forward compatibility with alternate Cache implementations.
	CacheFull

	// InternalInvariant indicates a bug: a condition the builder or
	// façade believed could never happen did.
	InternalInvariant
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case InputInvalid:
		return "InputInvalid"
	case StateOutOfBounds:
		return "StateOutOfBounds"
	case CacheFull:
		return "CacheFull"
	case InternalInvariant:
		return "InternalInvariant"
	default:
		return fmt.Sprintf("UnknownErrorKind(%d)", uint8(k))
	}
}

// IndexError is the error type returned by this package's fallible
// operations.
type IndexError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap supports errors.Is/errors.As against Cause.
func (e *IndexError) Unwrap() error { return e.Cause }

// Is supports errors.Is against another *IndexError with the same Kind.
func (e *IndexError) Is(target error) bool {
	t, ok := target.(*IndexError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
