package certgen

import (
	"context"
	"errors"

	errorslib "github.com/goliatone/go-errors"
)

// ErrorKind defines generator error kinds.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindTemplate   ErrorKind = "template"
	KindSource     ErrorKind = "source"
	KindConvert    ErrorKind = "convert"
	KindStorage    ErrorKind = "storage"
	KindBusy       ErrorKind = "busy"
	KindNotFound   ErrorKind = "not_found"
	KindCanceled   ErrorKind = "canceled"
	KindInternal   ErrorKind = "internal"
)

// GenError wraps errors with a kind.
type GenError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *GenError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *GenError) Unwrap() error {
	return e.Err
}

// NewError creates a new generator error.
func NewError(kind ErrorKind, msg string, err error) *GenError {
	return &GenError{Kind: kind, Msg: msg, Err: err}
}

// wrapError tags err with kind unless it already carries one.
func wrapError(kind ErrorKind, msg string, err error) error {
	if err == nil {
		return nil
	}
	var genErr *GenError
	if errors.As(err, &genErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindCanceled, msg, err)
	}
	return NewError(kind, msg, err)
}

// AsGoError maps an error into a go-errors error.
func AsGoError(err error) *errorslib.Error {
	if err == nil {
		return nil
	}

	var ge *errorslib.Error
	if errors.As(err, &ge) {
		return ge
	}

	kind := KindFromError(err)
	msg := err.Error()

	switch kind {
	case KindValidation:
		return errorslib.New(msg, errorslib.CategoryValidation).WithTextCode("validation")
	case KindNotFound:
		return errorslib.New(msg, errorslib.CategoryNotFound).WithTextCode("not_found")
	case KindBusy:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("busy")
	case KindCanceled:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("canceled")
	case KindTemplate:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("template")
	case KindSource:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("source")
	case KindConvert:
		return errorslib.New(msg, errorslib.CategoryExternal).WithTextCode("convert")
	case KindStorage:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("storage")
	default:
		return errorslib.New(msg, errorslib.CategoryInternal).WithTextCode("internal")
	}
}

// KindFromError maps an error to its generator error kind.
func KindFromError(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var genErr *GenError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	return KindInternal
}
