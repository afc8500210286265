package format

import (
	"errors"
	"fmt"
)

// Kind classifies why a book could not be opened.
type Kind int

const (
	// Corrupt means the container is damaged or not what it claims to be.
	Corrupt Kind = iota + 1
	// UnsupportedVersion means the container version is not handled.
	UnsupportedVersion
	// MissingRequiredPart means a mandatory part of the container is absent.
	MissingRequiredPart
	// UnsupportedFormat means the format, or a feature of it such as DRM or
	// an unavailable decoder, cannot be processed.
	UnsupportedFormat
	// IO means the file could not be read.
	IO
)

// Sentinels for use with errors.Is. Every *Error matches the sentinel of
// its Kind.
var (
	ErrCorrupt             = errors.New("corrupt file")
	ErrUnsupportedVersion  = errors.New("unsupported version")
	ErrMissingRequiredPart = errors.New("missing required part")
	ErrUnsupportedFormat   = errors.New("unsupported format")
	ErrIO                  = errors.New("i/o error")
)

// Sentinel returns the sentinel error for the kind.
func (k Kind) Sentinel() error {
	switch k {
	case Corrupt:
		return ErrCorrupt
	case UnsupportedVersion:
		return ErrUnsupportedVersion
	case MissingRequiredPart:
		return ErrMissingRequiredPart
	case UnsupportedFormat:
		return ErrUnsupportedFormat
	case IO:
		return ErrIO
	}
	return nil
}

func (k Kind) String() string {
	if s := k.Sentinel(); s != nil {
		return s.Error()
	}
	return "unknown error"
}

// Error is returned when a book cannot be opened. It is fatal for that
// import.
type Error struct {
	Kind   Kind
	Format Format
	Path   string
	Err    error
}

// NewError returns an *Error of the given kind wrapping err.
func NewError(kind Kind, f Format, err error) *Error {
	return &Error{Kind: kind, Format: f, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Format != Unknown {
		msg = e.Format.String() + ": " + msg
	}
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of e.Kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.Sentinel()
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}
