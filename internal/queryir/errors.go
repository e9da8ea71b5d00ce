package queryir

import (
	"errors"
	"fmt"
)

// QueryError represents an error detected while building, translating or
// executing a query.
//
// Query errors include:
//   - Type mismatch: operand categories do not fit an operator
//   - Alias conflict: the same alias is declared twice in one scope
//   - Unbound fetch join: a fetch join whose owner is not declared
//   - Unbound alias: an expression references an alias out of scope
//   - Invalid query: structural problems (no source, negative paging)
//   - Non-unique result: single-row fetch observed more than one row
//   - Translation error: the AST cannot be expressed in the target dialect
//   - Execution failure: the execution surface rejected the statement
//
// QueryError carries the category in Code so callers can branch with
// errors.Is against the sentinel values below, or with CodeOf.
type QueryError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	CodeTypeMismatch     ErrorCode = "TYPE_MISMATCH"
	CodeAliasConflict    ErrorCode = "ALIAS_CONFLICT"
	CodeUnboundFetchJoin ErrorCode = "UNBOUND_FETCH_JOIN"
	CodeUnboundAlias     ErrorCode = "UNBOUND_ALIAS"
	CodeInvalidQuery     ErrorCode = "INVALID_QUERY"
	CodeNonUniqueResult  ErrorCode = "NON_UNIQUE_RESULT"
	CodeTranslation      ErrorCode = "TRANSLATION_ERROR"
	CodeExecution        ErrorCode = "EXECUTION_FAILURE"
)

// Sentinels for errors.Is. Only the Code is compared.
var (
	ErrTypeMismatch     = &QueryError{Code: CodeTypeMismatch}
	ErrAliasConflict    = &QueryError{Code: CodeAliasConflict}
	ErrUnboundFetchJoin = &QueryError{Code: CodeUnboundFetchJoin}
	ErrUnboundAlias     = &QueryError{Code: CodeUnboundAlias}
	ErrInvalidQuery     = &QueryError{Code: CodeInvalidQuery}
	ErrNonUniqueResult  = &QueryError{Code: CodeNonUniqueResult}
	ErrTranslation      = &QueryError{Code: CodeTranslation}
	ErrExecution        = &QueryError{Code: CodeExecution}
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is matches any QueryError with the same Code.
func (e *QueryError) Is(target error) bool {
	var qe *QueryError
	if errors.As(target, &qe) {
		return qe.Code == e.Code
	}
	return false
}

// CodeOf returns the code of the first QueryError in err's chain,
// or "" if there is none.
func CodeOf(err error) ErrorCode {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// Errorf creates a QueryError with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *QueryError {
	return &QueryError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a QueryError around an underlying cause.
func Wrap(code ErrorCode, err error, format string, args ...any) *QueryError {
	return &QueryError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}
