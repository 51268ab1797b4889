package model

import (
	"fmt"
	"strconv"
	"strings"
)

// RawRow is one worksheet row keyed by header column name.
type RawRow map[string]string

// WorksheetSelector picks a worksheet by name or by zero-based position.
type WorksheetSelector struct {
	name   string
	index  int
	byName bool
}

// WorksheetByName selects a worksheet by name. Matching is case-insensitive.
func WorksheetByName(name string) WorksheetSelector {
	return WorksheetSelector{name: name, byName: true}
}

// WorksheetAt selects the worksheet at a zero-based position.
func WorksheetAt(index int) WorksheetSelector {
	return WorksheetSelector{index: index}
}

// Name returns the selected name and whether the selector is name based.
func (s WorksheetSelector) Name() (string, bool) {
	return s.name, s.byName
}

// Index returns the selected position and whether the selector is position based.
func (s WorksheetSelector) Index() (int, bool) {
	return s.index, !s.byName
}

// String returns the selector in a readable form.
func (s WorksheetSelector) String() string {
	if s.byName {
		return s.name
	}
	return "#" + strconv.Itoa(s.index)
}

// Operator is a filter comparison operator.
type Operator string

// Supported operators.
const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLike         Operator = "like"
	OpContains     Operator = "contains"
)

// ParseOperator normalizes an operator string.
func ParseOperator(s string) (Operator, error) {
	switch op := strings.ToLower(strings.TrimSpace(s)); op {
	case "=", "==":
		return OpEqual, nil
	case "!=", "<>":
		return OpNotEqual, nil
	case "<", "<=", ">", ">=", "like", "contains":
		return Operator(op), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, s)
	}
}

// Condition is one filter that the engine evaluates.
type Condition struct {
	Column   string
	Operator Operator
	Value    any
}

// String returns "column op value".
func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Column, c.Operator, c.Value)
}

// SheetQuery is a query against a single worksheet.
type SheetQuery struct {
	Worksheet  WorksheetSelector
	Range      CellRange
	NoHeader   bool
	Conditions []Condition
}
