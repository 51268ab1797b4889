package model

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellRange is a rectangular area of a worksheet in 1-based coordinates.
// Zero values mean the area is unbounded in that direction.
type CellRange struct {
	FirstColumn int
	FirstRow    int
	LastColumn  int
	LastRow     int
}

// ParseCellRange parses A1 style references such as "B2" and "D10".
// Either reference may be empty.
func ParseCellRange(start, end string) (CellRange, error) {
	var r CellRange
	if start = strings.TrimSpace(start); start != "" {
		col, row, err := excelize.CellNameToCoordinates(start)
		if err != nil {
			return CellRange{}, fmt.Errorf("%w: start %q: %w", ErrInvalidRange, start, err)
		}
		r.FirstColumn, r.FirstRow = col, row
	}
	if end = strings.TrimSpace(end); end != "" {
		col, row, err := excelize.CellNameToCoordinates(end)
		if err != nil {
			return CellRange{}, fmt.Errorf("%w: end %q: %w", ErrInvalidRange, end, err)
		}
		r.LastColumn, r.LastRow = col, row
	}
	if r.LastColumn != 0 && r.FirstColumn > r.LastColumn {
		return CellRange{}, fmt.Errorf("%w: %s is right of %s", ErrInvalidRange, start, end)
	}
	if r.LastRow != 0 && r.FirstRow > r.LastRow {
		return CellRange{}, fmt.Errorf("%w: %s is below %s", ErrInvalidRange, start, end)
	}
	return r, nil
}

// HeaderRow returns the row holding the header, the first row of the range.
func (r CellRange) HeaderRow() int {
	return max(r.FirstRow, 1)
}

// Columns returns the first and last column of the range clamped to width.
func (r CellRange) Columns(width int) (first, last int) {
	first = max(r.FirstColumn, 1)
	last = width
	if r.LastColumn != 0 && r.LastColumn < last {
		last = r.LastColumn
	}
	return first, last
}

// IsZero reports whether the range covers the whole worksheet.
func (r CellRange) IsZero() bool {
	return r == CellRange{}
}

// ColumnLetter returns the A1 column name of a 1-based column number.
func ColumnLetter(column int) string {
	name, err := excelize.ColumnNumberToName(column)
	if err != nil {
		return fmt.Sprintf("C%d", column)
	}
	return name
}
