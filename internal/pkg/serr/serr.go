package serr

import (
	"fmt"
	"runtime/debug"
)

// ServiceError is an error that knows how it should be rendered to an HTTP client.
// Msg is safe to show to the caller, Err is kept for logs only.
type ServiceError struct {
	Err        error
	Msg        string
	StackTrace string
	StatusCode int
	Env        map[string]string
}

func NewServiceError(err error, statusCode int, msg string, args ...any) *ServiceError {
	return &ServiceError{
		Err:        err,
		Msg:        fmt.Sprintf(msg, args...),
		StackTrace: string(debug.Stack()),
		StatusCode: statusCode,
		Env:        make(map[string]string),
	}
}

// With attaches a key/value pair that is logged together with the error.
func (e *ServiceError) With(key string, val any) *ServiceError {
	e.Env[key] = fmt.Sprint(val)
	return e
}

func (e *ServiceError) Error() string {
	return e.Msg
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
