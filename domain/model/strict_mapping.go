package model

import (
	"fmt"
	"strings"
)

// StrictMapping controls how mismatches between properties and columns are treated.
type StrictMapping int

const (
	// StrictMappingNone tolerates properties without columns and columns without properties.
	StrictMappingNone StrictMapping = iota
	// StrictMappingClass requires every property to match a column.
	StrictMappingClass
	// StrictMappingWorksheet requires every column to match a property.
	StrictMappingWorksheet
	// StrictMappingBoth combines StrictMappingClass and StrictMappingWorksheet.
	StrictMappingBoth
)

// String returns the mode name.
func (s StrictMapping) String() string {
	switch s {
	case StrictMappingNone:
		return "None"
	case StrictMappingClass:
		return "ClassStrict"
	case StrictMappingWorksheet:
		return "WorksheetStrict"
	case StrictMappingBoth:
		return "Both"
	default:
		return fmt.Sprintf("StrictMapping(%d)", int(s))
	}
}

// ChecksProperties reports whether every property must match a column.
func (s StrictMapping) ChecksProperties() bool {
	return s == StrictMappingClass || s == StrictMappingBoth
}

// ChecksColumns reports whether every column must match a property.
func (s StrictMapping) ChecksColumns() bool {
	return s == StrictMappingWorksheet || s == StrictMappingBoth
}

// ParseStrictMapping parses a mode name. Matching is case-insensitive and
// an empty string means StrictMappingNone.
func ParseStrictMapping(s string) (StrictMapping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return StrictMappingNone, nil
	case "classstrict", "class":
		return StrictMappingClass, nil
	case "worksheetstrict", "worksheet":
		return StrictMappingWorksheet, nil
	case "both":
		return StrictMappingBoth, nil
	default:
		return StrictMappingNone, fmt.Errorf("%w: %q", ErrUnknownStrictMapping, s)
	}
}
