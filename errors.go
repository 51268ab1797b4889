package sheetquery

import (
	"errors"
	"fmt"
	"strings"
)

// Standard errors. Configuration problems are reported before any row is read;
// transform and conversion failures stop the query at the offending row.
var (
	// ErrStrictMapping indicates that properties and columns do not match under the strict mapping mode
	ErrStrictMapping = errors.New("sheetquery: strict mapping violated")

	// ErrPropertyNotFound indicates that a registration names a property the type does not have
	ErrPropertyNotFound = errors.New("sheetquery: property not found")

	// ErrNotStruct indicates that a query or registration targets a non-struct type
	ErrNotStruct = errors.New("sheetquery: target type must be a struct")

	// ErrInvalidForeignKey indicates that a relation property is not a slice of the related type
	ErrInvalidForeignKey = errors.New("sheetquery: invalid foreign key")

	// ErrTransformFailed indicates that a registered transform returned an error or an unusable value
	ErrTransformFailed = errors.New("sheetquery: transform failed")

	// ErrConversion indicates that a cell value cannot be converted to the property type
	ErrConversion = errors.New("sheetquery: value conversion failed")

	// ErrRelationDepth indicates that relations nest deeper than MaxRelationDepth
	ErrRelationDepth = errors.New("sheetquery: relation nesting too deep")

	// ErrRelationUnavailable indicates that a relation property was materialized without a source to query
	ErrRelationUnavailable = errors.New("sheetquery: relation cannot be resolved without a source")

	// ErrNoFile indicates that no source file was configured
	ErrNoFile = errors.New("sheetquery: no file configured")

	// ErrUnknownEngine indicates that the configured engine name is not registered
	ErrUnknownEngine = errors.New("sheetquery: unknown engine")

	// ErrUnknownType indicates that a configured mapping names a type that was not provided
	ErrUnknownType = errors.New("sheetquery: unknown type")

	// ErrNoRows indicates that First found no row
	ErrNoRows = errors.New("sheetquery: no rows in result set")
)

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	FileName  string
	Worksheet string
	Property  string
	Column    string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, fileName string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		FileName:  fileName,
	}
}

// WithWorksheet adds worksheet context to the error
func (ec *ErrorContext) WithWorksheet(worksheet string) *ErrorContext {
	ec.Worksheet = worksheet
	return ec
}

// WithProperty adds property and column context to the error
func (ec *ErrorContext) WithProperty(property, column string) *ErrorContext {
	ec.Property = property
	ec.Column = column
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Error creates a formatted error with context
func (ec *ErrorContext) Error(baseErr error) error {
	parts := []string{fmt.Sprintf("sheetquery: %s failed", ec.Operation)}

	if ec.FileName != "" {
		parts = append(parts, "file: "+ec.FileName)
	}
	if ec.Worksheet != "" {
		parts = append(parts, "worksheet: "+ec.Worksheet)
	}
	if ec.Property != "" {
		parts = append(parts, "property: "+ec.Property)
	}
	if ec.Column != "" {
		parts = append(parts, "column: "+ec.Column)
	}
	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%s: %w", context, baseErr)
	}
	return errors.New(context)
}
