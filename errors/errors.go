package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified engine error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Common Error Constructors ---

// MissingColumn creates an error for a row that lacks a required column.
func MissingColumn(column string) *AppError {
	return &AppError{
		Code: ErrCodeMissingColumn, Message: fmt.Sprintf("column %q is missing from row", column),
		Details: map[string]any{"column": column},
	}
}

// SourceNotFound creates an error for a named source that was not supplied to a run.
func SourceNotFound(name string) *AppError {
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("source %q was not provided", name),
		Details: map[string]any{"source": name},
	}
}

// FileNotFound creates an error for an input file that does not exist.
func FileNotFound(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("file %s does not exist", path),
		Details: map[string]any{"path": path}, Cause: cause,
	}
}

// IO creates an error for a failed file or temp-storage operation.
func IO(op, path string, cause error) *AppError {
	details := map[string]any{"operation": op}
	if path != "" {
		details["path"] = path
	}
	return &AppError{
		Code: ErrCodeIO, Message: fmt.Sprintf("%s failed", op),
		Details: details, Cause: cause,
	}
}

// InvalidFormat creates an error for a source line that could not be parsed.
func InvalidFormat(path string, line int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeInvalidFormat, Message: fmt.Sprintf("cannot parse line %d of %s", line, path),
		Details: map[string]any{"path": path, "line": line}, Cause: cause,
	}
}

// InvalidInput creates an error for an unusable value or argument.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates an error for a configuration that failed validation.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// Internal creates an error for an unexpected engine failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected engine error occurred",
		Cause: cause,
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is, or wraps, an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Wrap converts any error to an AppError. AppErrors anywhere in the chain are
// returned as-is; anything else becomes INTERNAL_ERROR.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
