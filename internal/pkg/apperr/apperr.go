package apperr

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// Code classifies a failure for callers.
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeDatabase          Code = "DATABASE_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeCircularReference Code = "CIRCULAR_REFERENCE"
	CodeUnknown           Code = "UNKNOWN_ERROR"
)

// CircularReferenceMessage is returned whenever an edit would close a reference cycle.
const CircularReferenceMessage = "This would create a circular reference. A page cannot reference itself directly or indirectly."

// Error is the error type every public service operation returns.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil && e.cause.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches another *Error by code, so errors.Is(err, apperr.NotFound("")) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Issue is one failed validation rule.
type Issue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Validation(message string, issues ...Issue) *Error {
	e := &Error{Code: CodeValidation, Message: message}
	if len(issues) > 0 {
		e.Details = issues
	}
	return e
}

func NotFound(message string) *Error {
	if message == "" {
		message = "Resource not found"
	}
	return &Error{Code: CodeNotFound, Message: message}
}

func CircularReference() *Error {
	return &Error{Code: CodeCircularReference, Message: CircularReferenceMessage}
}

// Database maps a store error. Record-not-found becomes NOT_FOUND, MySQL
// server errors carry their number and SQL state.
func Database(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Code: CodeNotFound, Message: "Resource not found", cause: err}
	}

	e := &Error{Code: CodeDatabase, Message: err.Error(), cause: err}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		e.Message = me.Message
		e.Details = map[string]any{
			"number":    me.Number,
			"sql_state": string(me.SQLState[:]),
		}
	}
	return e
}

// DatabaseMsg is Database with the store message prefixed by message.
func DatabaseMsg(err error, message string) *Error {
	e := Database(err)
	if e == nil || e.Code != CodeDatabase {
		return e
	}
	return &Error{Code: e.Code, Message: message + ": " + e.Message, Details: e.Details, cause: e.cause}
}

// Wrap converts any error into an *Error. Unclassified errors are UNKNOWN_ERROR.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Code: CodeUnknown, Message: err.Error(), cause: err}
}

// CodeOf returns the code of err, or "" when err is nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return Wrap(err).Code
}

// Recover turns a panic in the deferring function into UNKNOWN_ERROR and
// normalizes any returned error to *Error. Use as `defer apperr.Recover(&err)`.
func Recover(errp *error) {
	if r := recover(); r != nil {
		*errp = &Error{Code: CodeUnknown, Message: fmt.Sprint(r)}
		return
	}
	if *errp != nil {
		*errp = Wrap(*errp)
	}
}
