package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Lookup errors
const (
	// ErrCodeMissingColumn indicates a row lacks a column an operator required.
	ErrCodeMissingColumn ErrorCode = "MISSING_COLUMN"
	// ErrCodeNotFound indicates a named source or input file does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates a value or argument is unusable.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInvalidFormat indicates a source line could not be parsed.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
)

// Resource errors
const (
	// ErrCodeIO indicates a read or write on a file or temp storage failed.
	ErrCodeIO ErrorCode = "IO_ERROR"
	// ErrCodeInternal indicates an unexpected engine failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)
