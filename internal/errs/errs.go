// Package errs описывает типизированные ошибки приложения. Код ошибки
// определяет, как её показать клиенту; сообщение можно показывать как есть.
package errs

import (
	"errors"
	"fmt"
)

// Коды ошибок приложения.
const (
	ENOTFOUND     = "not_found"
	EUNAUTHORIZED = "unauthorized"
	EINVALID      = "invalid"
	ECONFLICT     = "conflict"
	EINTERNAL     = "internal"
)

// Error - ошибка с кодом и сообщением для пользователя.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf создаёт ошибку с кодом и отформатированным сообщением.
func Errorf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode возвращает код ошибки приложения. Для nil возвращает пустую строку,
// для сторонних ошибок - EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage возвращает сообщение ошибки приложения. Сообщения сторонних
// ошибок наружу не отдаются.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

func IsNotFound(err error) bool     { return ErrorCode(err) == ENOTFOUND }
func IsUnauthorized(err error) bool { return ErrorCode(err) == EUNAUTHORIZED }
func IsInvalid(err error) bool      { return ErrorCode(err) == EINVALID }
func IsConflict(err error) bool     { return ErrorCode(err) == ECONFLICT }
