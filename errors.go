package imdbtsv

import (
	"errors"
	"fmt"
	"strings"
)

// Standard errors returned by parse runs and exports
var (
	// ErrIO indicates the source stream could not be read
	ErrIO = errors.New("imdbtsv: read failed")

	// ErrCapacityExceeded indicates the input does not fit into the parse buffer
	ErrCapacityExceeded = errors.New("imdbtsv: buffer capacity exceeded")

	// ErrMalformedRange indicates a range that does not hold a whole number of rows
	ErrMalformedRange = errors.New("imdbtsv: malformed range")

	// ErrInvalidOptions indicates unusable parse options
	ErrInvalidOptions = errors.New("imdbtsv: invalid options")

	// ErrUnsupportedFormat indicates an unsupported output format or compression
	ErrUnsupportedFormat = errors.New("imdbtsv: unsupported format")

	// ErrXLSXRowLimit indicates more rows than a worksheet can hold
	ErrXLSXRowLimit = errors.New("imdbtsv: too many rows for xlsx")
)

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	FilePath  string
	TableName string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, filePath string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		FilePath:  filePath,
	}
}

// WithTable adds table context to the error
func (ec *ErrorContext) WithTable(tableName string) *ErrorContext {
	ec.TableName = tableName
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(format string, args ...any) *ErrorContext {
	ec.Details = fmt.Sprintf(format, args...)
	return ec
}

// Error creates a formatted error with context
func (ec *ErrorContext) Error(baseErr error) error {
	var parts []string
	parts = append(parts, ec.Operation+" failed")

	if ec.FilePath != "" {
		parts = append(parts, "file: "+ec.FilePath)
	}

	if ec.TableName != "" {
		parts = append(parts, "table: "+ec.TableName)
	}

	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%w: %s", baseErr, context)
	}
	return errors.New(context)
}
