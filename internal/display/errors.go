package display

import (
	"errors"
	"fmt"
)

// Kind classifies gateway failures
type Kind int

const (
	// ConnectionFailure means no session to the X server could be established
	ConnectionFailure Kind = iota + 1
	// ProtocolFailure means a request was rejected or a reply was malformed
	ProtocolFailure
	// ResourceUnavailable means the server lacks something the call needs:
	// a pointer-owning screen, EWMH atoms, an extension, or a usable visual
	ResourceUnavailable
	// IoFailure means the temporary capture file could not be written or read
	IoFailure
)

var (
	ErrConnectionFailure   = errors.New("connection failure")
	ErrProtocolFailure     = errors.New("protocol failure")
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrIoFailure           = errors.New("i/o failure")

	// ErrWmDoesNotSupportEwmh is wrapped by a ResourceUnavailable error when
	// _NET_CLIENT_LIST_STACKING or _NET_FRAME_EXTENTS is missing
	ErrWmDoesNotSupportEwmh = errors.New("WM does not support EWMH")

	// ErrNoPointerScreen is wrapped by a ResourceUnavailable error when no
	// root screen reports the pointer
	ErrNoPointerScreen = errors.New("no root screen owns the pointer")
)

func (k Kind) String() string {
	switch k {
	case ConnectionFailure:
		return "connection failure"
	case ProtocolFailure:
		return "protocol failure"
	case ResourceUnavailable:
		return "resource unavailable"
	case IoFailure:
		return "i/o failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case ConnectionFailure:
		return ErrConnectionFailure
	case ProtocolFailure:
		return ErrProtocolFailure
	case ResourceUnavailable:
		return ErrResourceUnavailable
	case IoFailure:
		return ErrIoFailure
	default:
		return nil
	}
}

// Error is returned by every Gateway call that fails. errors.Is matches it
// against the sentinel of its Kind as well as anything it wraps.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e.Kind
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of a gateway error, or 0 if err did not come from
// this package
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
