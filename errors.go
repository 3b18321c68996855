package codanative

import (
	"errors"
	"strings"
)

// ErrorKind separates the loader's own failures from failures reported by
// the operating system's dynamic loader.
type ErrorKind string

const (
	// KindSimple is a precondition this package checks itself: a bootstrap
	// with the wrong signature, a malformed bind table, an ABI mismatch.
	KindSimple ErrorKind = "simple"
	// KindDynamic wraps a dlopen, dlsym or plugin package failure verbatim.
	KindDynamic ErrorKind = "dynamic"
)

var (
	ErrLibraryClosed = errors.New("codanative: library closed")
	ErrDuplicateBind = errors.New("codanative: duplicate bind")
	ErrBindNotFound  = errors.New("codanative: bind not found")
	ErrHandlerPanic  = errors.New("codanative: handler panicked")
)

// LoadError is returned by every failed load.
type LoadError struct {
	Cause  error
	Kind   ErrorKind
	Path   string
	Symbol string
	Detail string
}

func (e *LoadError) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Kind))
	b.WriteString("] load")
	if e.Path != "" {
		b.WriteByte(' ')
		b.WriteString(e.Path)
	}
	if e.Symbol != "" {
		b.WriteString(" symbol ")
		b.WriteString(e.Symbol)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Cause }

// Is matches another *LoadError of the same kind, so
// errors.Is(err, &LoadError{Kind: KindDynamic}) works.
func (e *LoadError) Is(target error) bool {
	if t, ok := target.(*LoadError); ok {
		return e.Kind == t.Kind
	}
	return false
}

func simpleError(path, symbol, detail string) *LoadError {
	return &LoadError{Kind: KindSimple, Path: path, Symbol: symbol, Detail: detail}
}

func dynamicError(path, symbol string, cause error) *LoadError {
	return &LoadError{Kind: KindDynamic, Path: path, Symbol: symbol, Cause: cause}
}

// IsSimple reports whether err contains a KindSimple load error.
func IsSimple(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == KindSimple
}

// IsDynamic reports whether err contains a KindDynamic load error.
func IsDynamic(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == KindDynamic
}
