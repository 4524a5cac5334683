// Package errs defines the error kinds every cppx command can fail with.
//
// Messages keep the code-prefixed form used across the CLI
// ("DOC_SCHEMA: missing [source] section") so a failure printed at the
// command boundary is still greppable, while callers branch on the kind
// with errors.Is against the exported sentinels.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindParse          Kind = "DOC_PARSE"
	KindSchema         Kind = "DOC_SCHEMA"
	KindNotConfigured  Kind = "PRJ_NOT_CONFIGURED"
	KindPath           Kind = "FS_PATH"
	KindNotInstalled   Kind = "PKG_NOT_INSTALLED"
	KindUnknownSetting Kind = "CFG_UNKNOWN_SETTING"
	KindIO             Kind = "FS_IO"
	KindProcess        Kind = "PROC_FAILED"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrParse          = &Error{Kind: KindParse}
	ErrSchema         = &Error{Kind: KindSchema}
	ErrNotConfigured  = &Error{Kind: KindNotConfigured}
	ErrPath           = &Error{Kind: KindPath}
	ErrNotInstalled   = &Error{Kind: KindNotInstalled}
	ErrUnknownSetting = &Error{Kind: KindUnknownSetting}
	ErrIO             = &Error{Kind: KindIO}
	ErrProcess        = &Error{Kind: KindProcess}
)

// Error is a classified failure with an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return string(e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Msg == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// New builds an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := ""
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
