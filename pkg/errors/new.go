package errors

import "fmt"

// New builds a traced ErrorDetails for the given taxonomy code. field may
// be empty when the error isn't attributable to one argument.
func New(code ErrorCode, field, format string, args ...interface{}) *ErrorTracer {
	msg := fmt.Sprintf(format, args...)
	return TracerFromError(NewErrorDetails(msg, string(code), field))
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		if ErrorCodeEquals(err, string(code)) {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
