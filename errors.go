package textblock

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error returned by this package matches exactly
// one of these with errors.Is.
var (
	// ErrInvalidFormat indicates a missing or unrecognized format tag, or
	// input that is not an object at all.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrMissingContent indicates a required field is absent.
	ErrMissingContent = errors.New("missing content")
	// ErrInvalidBlockType indicates a section child with an unrecognized tag.
	ErrInvalidBlockType = errors.New("invalid block type")
	// ErrUnknownFormat indicates output was requested for a tag nobody renders.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrDuplicateRegistration indicates a registry collision.
	ErrDuplicateRegistration = errors.New("duplicate registration")
	// ErrResolver is matched by every *ResolverError.
	ErrResolver = errors.New("resolver failed")
	// ErrUnknownEnhancement indicates a placeholder whose name is not registered.
	ErrUnknownEnhancement = errors.New("unknown enhancement")
	// ErrMarkerCollision indicates sanitized content already contained the
	// placeholder marker.
	ErrMarkerCollision = errors.New("placeholder marker collision")
	// ErrMalformedPlaceholder indicates an encoded placeholder could not be decoded.
	ErrMalformedPlaceholder = errors.New("malformed placeholder")
)

// Error describes a failure at a position in the block tree.
type Error struct {
	Op     string // "validate", "render", "register", "slab"
	Format string // format tag of the failing block, if known
	Path   string // e.g. "blocks[2].blocks[0]"; empty for the root
	Err    error
}

func (e *Error) Error() string {
	var where string
	if e.Format != "" {
		where = " " + e.Format
	}
	if e.Path != "" {
		where += " at " + e.Path
	}
	return fmt.Sprintf("textblock %s%s: %v", e.Op, where, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ResolverError wraps a failure reported by a caller-supplied resolver or
// scanner.
type ResolverError struct {
	Kind string // "pragma", "enhancement" or "scan"
	Name string // enhancement name; empty for pragmas
	Path string // block path the resolver was invoked for, if any
	Err  error
}

func (e *ResolverError) Error() string {
	msg := e.Kind + " resolver"
	if e.Name != "" {
		msg += " " + e.Name
	}
	if e.Path != "" {
		msg += " at " + e.Path
	}
	return fmt.Sprintf("textblock: %s: %v", msg, e.Err)
}

func (e *ResolverError) Unwrap() []error { return []error{ErrResolver, e.Err} }

func newError(op, format, path string, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	var re *ResolverError
	if errors.As(err, &te) || errors.As(err, &re) {
		return err
	}
	return &Error{Op: op, Format: format, Path: path, Err: err}
}

func errorf(op, format, path string, sentinel error, msg string, args ...any) error {
	return &Error{Op: op, Format: format, Path: path, Err: fmt.Errorf("%w: "+msg, append([]any{sentinel}, args...)...)}
}
