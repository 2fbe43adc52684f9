// Package apperr classifies domain errors so transports can map them
// without knowing every domain package.
package apperr

import "errors"

type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindConfiguration Kind = "configuration"
)

// Error is a classified, comparable sentinel. Code is the stable
// machine-readable identifier (e.g. "invalid_cost").
type Error struct {
	Kind Kind
	Code string
}

func (e *Error) Error() string {
	return e.Code
}

func Validation(code string) *Error {
	return &Error{Kind: KindValidation, Code: code}
}

func NotFound(code string) *Error {
	return &Error{Kind: KindNotFound, Code: code}
}

func Conflict(code string) *Error {
	return &Error{Kind: KindConflict, Code: code}
}

func Configuration(code string) *Error {
	return &Error{Kind: KindConfiguration, Code: code}
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) (Kind, bool) {
	var target *Error
	if errors.As(err, &target) && target != nil {
		return target.Kind, true
	}
	return "", false
}

// CodeOf returns the code of the first classified error in err's chain.
func CodeOf(err error) string {
	var target *Error
	if errors.As(err, &target) && target != nil {
		return target.Code
	}
	return ""
}

func IsValidation(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindValidation
}

func IsNotFound(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindNotFound
}

func IsConflict(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindConflict
}
