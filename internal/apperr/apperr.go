package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for the caller. The front end decides on
// re-prompting, offering a creation path or retrying by looking at the kind.
type Kind string

const (
	KindValidation Kind = "validation_error"
	KindNotFound   Kind = "not_found"
	KindLookup     Kind = "lookup_failure"
	KindStorage    Kind = "storage_failure"
	KindInternal   Kind = "internal_error"
)

// Error is a typed failure returned by the ledger services.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Lookup(code, message string, err error) *Error {
	return &Error{Kind: KindLookup, Code: code, Message: message, Err: err}
}

// Storage wraps a store error. op names the failed operation.
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Code: "storage_failure", Message: op, Err: err}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var typed *Error
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for untyped errors.
func KindOf(err error) Kind {
	if typed, ok := As(err); ok {
		return typed.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a failure kind onto a response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindLookup:
		return http.StatusBadGateway
	case KindStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
