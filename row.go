package sheetquery

import (
	"context"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/sheetquery/domain/model"
)

var rowType = reflect.TypeFor[Row]()

// Row is a worksheet row without a target type. Cells are kept in header order.
type Row struct {
	columns []string
	cells   []Cell
}

// Cell is the raw value of one worksheet cell.
type Cell struct {
	value string
}

// NewCell creates a cell holding value.
func NewCell(value string) Cell {
	return Cell{value: value}
}

// Columns returns the column names of the row.
func (r Row) Columns() []string {
	return slices.Clone(r.columns)
}

// Len returns the number of cells.
func (r Row) Len() int {
	return len(r.cells)
}

// At returns the cell at the zero-based position i.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r.cells) {
		return Cell{}
	}
	return r.cells[i]
}

// Get returns the cell of column. Column names are matched case-insensitively
// and an unknown column returns an empty cell.
func (r Row) Get(column string) Cell {
	return r.At(model.NewHeader(r.columns).Index(column))
}

// Has reports whether the row has column.
func (r Row) Has(column string) bool {
	return model.NewHeader(r.columns).Index(column) >= 0
}

// Values returns the raw cell values in column order.
func (r Row) Values() []string {
	values := make([]string, len(r.cells))
	for i, c := range r.cells {
		values[i] = c.value
	}
	return values
}

// String returns the raw value.
func (c Cell) String() string {
	return c.value
}

// IsEmpty reports whether the cell holds only whitespace.
func (c Cell) IsEmpty() bool {
	return strings.TrimSpace(c.value) == ""
}

// Int converts the cell to an integer.
func (c Cell) Int() (int64, error) {
	return CellAs[int64](c)
}

// Float converts the cell to a float.
func (c Cell) Float() (float64, error) {
	return CellAs[float64](c)
}

// Bool converts the cell to a bool.
func (c Cell) Bool() (bool, error) {
	return CellAs[bool](c)
}

// Time converts the cell to a time. Excel serial dates are accepted.
func (c Cell) Time() (time.Time, error) {
	return CellAs[time.Time](c)
}

// CellAs converts the cell to V with the default conversion rules.
func CellAs[V any](c Cell) (V, error) {
	var zero V
	v, err := coerceValue(c.value, reflect.TypeFor[V]())
	if err != nil {
		return zero, err
	}
	return v.Interface().(V), nil
}

// rowBuilder produces Row values in header order.
type rowBuilder struct {
	columns []string
}

func newRowBuilder(header []string) *rowBuilder {
	columns := make([]string, 0, len(header))
	for _, name := range header {
		if name != "" {
			columns = append(columns, name)
		}
	}
	return &rowBuilder{columns: columns}
}

func (b *rowBuilder) materialize(_ context.Context, raw model.RawRow) (reflect.Value, error) {
	row := Row{columns: b.columns, cells: make([]Cell, len(b.columns))}
	for i, column := range b.columns {
		row.cells[i] = Cell{value: raw[column]}
	}
	return reflect.ValueOf(&row).Elem(), nil
}
