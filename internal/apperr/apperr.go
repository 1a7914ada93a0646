// Package apperr описывает виды ошибок, которые видит клиент API.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind string

const (
	KindAuthorizationDenied Kind = "AUTHORIZATION_DENIED"
	KindNotFound            Kind = "NOT_FOUND"
	KindInvalidArgument     Kind = "INVALID_ARGUMENT"
	KindInternal            Kind = "INTERNAL"
)

// Error - ошибка с видом, который попадает в extensions.code ответа GraphQL
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Extensions используется graphql-go для заполнения поля extensions
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": string(e.Kind)}
}

func AuthorizationDenied(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorizationDenied, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func Internal() *Error {
	return &Error{Kind: KindInternal, Message: "internal error"}
}

// KindOf возвращает вид ошибки; для ошибок без вида - KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is проверяет вид ошибки с учетом обертки
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
