package model

import "errors"

var (
	// ErrDuplicateColumnName is returned when a header row contains duplicate column names
	ErrDuplicateColumnName = errors.New("duplicate column name")
	// ErrInvalidRange is returned when a cell reference cannot be parsed
	ErrInvalidRange = errors.New("invalid cell range")
	// ErrUnknownStrictMapping is returned for an unrecognized strict mapping name
	ErrUnknownStrictMapping = errors.New("unknown strict mapping")
	// ErrAmbiguousWorksheet is returned when both a worksheet name and index are given
	ErrAmbiguousWorksheet = errors.New("worksheet name and index are mutually exclusive")
	// ErrWorksheetNotFound is returned when the requested worksheet does not exist
	ErrWorksheetNotFound = errors.New("worksheet not found")
	// ErrColumnNotFound is returned when a filter references an unknown column
	ErrColumnNotFound = errors.New("column not found")
	// ErrUnsupportedOperator is returned for an unknown filter operator
	ErrUnsupportedOperator = errors.New("unsupported operator")
	// ErrUnsupportedFile is returned for files that cannot be read as a workbook
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrEmptyWorkbook is returned when a source holds no worksheets
	ErrEmptyWorkbook = errors.New("workbook has no worksheets")
)
