// Package model provides the domain model for sheetquery
package model

import (
	"fmt"
	"strings"
)

// Header is a worksheet header row.
type Header []string

// NewHeader create new Header.
func NewHeader(h []string) Header {
	return Header(h)
}

// Equal compare Header.
func (h Header) Equal(h2 Header) bool {
	if len(h) != len(h2) {
		return false
	}
	for i, v := range h {
		if v != h2[i] {
			return false
		}
	}
	return true
}

// Index returns the position of name in the header, ignoring case and
// surrounding whitespace, or -1.
func (h Header) Index(name string) int {
	key := NormalizeColumnName(name)
	for i, v := range h {
		if NormalizeColumnName(v) == key {
			return i
		}
	}
	return -1
}

// Validate returns ErrDuplicateColumnName when two non-empty columns share a name.
func (h Header) Validate() error {
	seen := make(map[string]int, len(h))
	for i, v := range h {
		key := NormalizeColumnName(v)
		if key == "" {
			continue
		}
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q at columns %s and %s",
				ErrDuplicateColumnName, v, ColumnLetter(prev+1), ColumnLetter(i+1))
		}
		seen[key] = i
	}
	return nil
}

// NormalizeColumnName returns the key used to compare column names.
func NormalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Record is one worksheet row.
type Record []string

// NewRecord create new Record.
func NewRecord(r []string) Record {
	return Record(r)
}

// Equal compare Record.
func (r Record) Equal(r2 Record) bool {
	if len(r) != len(r2) {
		return false
	}
	for i, v := range r {
		if v != r2[i] {
			return false
		}
	}
	return true
}

// IsBlank reports whether every cell of the record is empty.
func (r Record) IsBlank() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ColumnType represents the inferred type of a column's values
type ColumnType int

const (
	// ColumnTypeText represents text values
	ColumnTypeText ColumnType = iota
	// ColumnTypeInteger represents integer values
	ColumnTypeInteger
	// ColumnTypeReal represents floating point values
	ColumnTypeReal
	// ColumnTypeDatetime represents date and time values
	ColumnTypeDatetime
)

// String returns the column type name
func (ct ColumnType) String() string {
	switch ct {
	case ColumnTypeInteger:
		return "INTEGER"
	case ColumnTypeReal:
		return "REAL"
	case ColumnTypeDatetime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

// IsNumeric reports whether values of the column compare as numbers.
func (ct ColumnType) IsNumeric() bool {
	return ct == ColumnTypeInteger || ct == ColumnTypeReal
}

// ColumnInfo represents column information with name and inferred type
type ColumnInfo struct {
	Name string
	Type ColumnType
}
