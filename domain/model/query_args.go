package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ConstructorArgs is the long-lived configuration a query factory owns.
// Nil stores are replaced by empty ones when a QueryArgs is built.
type ConstructorArgs struct {
	FileName            string
	Engine              string
	ColumnMappings      *ColumnMappings
	Transformations     *PropertyTransforms
	TypeTransformations *TypeTransforms
	ForeignKeys         *ForeignKeys
	StrictMapping       *StrictMapping
}

// QueryArgs is the frozen set of options a single query runs with.
type QueryArgs struct {
	FileName            string
	Engine              string
	WorksheetName       string
	WorksheetIndex      *int
	ColumnMappings      *ColumnMappings
	Transformations     *PropertyTransforms
	TypeTransformations *TypeTransforms
	ForeignKeys         *ForeignKeys
	StartRange          string
	EndRange            string
	NoHeader            bool
	StrictMapping       StrictMapping
}

// NewQueryArgs creates QueryArgs from the baseline. Stores present in args are
// shared by reference, absent ones are created empty. Worksheet, range and
// header options always start unset.
func NewQueryArgs(args ConstructorArgs) *QueryArgs {
	q := &QueryArgs{
		FileName:            args.FileName,
		Engine:              args.Engine,
		ColumnMappings:      args.ColumnMappings,
		Transformations:     args.Transformations,
		TypeTransformations: args.TypeTransformations,
		ForeignKeys:         args.ForeignKeys,
		StrictMapping:       StrictMappingNone,
	}
	if q.ColumnMappings == nil {
		q.ColumnMappings = NewColumnMappings()
	}
	if q.Transformations == nil {
		q.Transformations = NewPropertyTransforms()
	}
	if q.TypeTransformations == nil {
		q.TypeTransformations = NewTypeTransforms()
	}
	if q.ForeignKeys == nil {
		q.ForeignKeys = NewForeignKeys()
	}
	if args.StrictMapping != nil {
		q.StrictMapping = *args.StrictMapping
	}
	return q
}

// Overrides holds the per-query options applied on top of a baseline.
type Overrides struct {
	WorksheetName  string
	WorksheetIndex *int
	StartRange     string
	EndRange       string
	NoHeader       bool
	// ExtraMappings apply to this query only.
	ExtraMappings []ColumnMapping
}

// BuildQueryArgs combines a baseline with per-query overrides.
// The baseline stores are never modified: extra mappings go to a copy.
func BuildQueryArgs(baseline ConstructorArgs, o Overrides) (*QueryArgs, error) {
	q := NewQueryArgs(baseline)
	q.WorksheetName = o.WorksheetName
	q.WorksheetIndex = o.WorksheetIndex
	q.StartRange = o.StartRange
	q.EndRange = o.EndRange
	q.NoHeader = o.NoHeader

	if len(o.ExtraMappings) > 0 {
		q.ColumnMappings = q.ColumnMappings.Clone()
		for _, m := range o.ExtraMappings {
			q.ColumnMappings.Add(m.Key.Type(), m.Key.Property(), m.Column)
		}
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Validate checks that the worksheet selector and range are usable.
func (q *QueryArgs) Validate() error {
	if q.WorksheetName != "" && q.WorksheetIndex != nil {
		return fmt.Errorf("%w: name %q, index %d", ErrAmbiguousWorksheet, q.WorksheetName, *q.WorksheetIndex)
	}
	if q.WorksheetIndex != nil && *q.WorksheetIndex < 0 {
		return fmt.Errorf("%w: negative index %d", ErrWorksheetNotFound, *q.WorksheetIndex)
	}
	_, err := q.Range()
	return err
}

// Range returns the parsed cell range.
func (q *QueryArgs) Range() (CellRange, error) {
	return ParseCellRange(q.StartRange, q.EndRange)
}

// Selector returns the worksheet to query. Without a name or index the
// first worksheet is selected.
func (q *QueryArgs) Selector() WorksheetSelector {
	if q.WorksheetName != "" {
		return WorksheetByName(q.WorksheetName)
	}
	if q.WorksheetIndex != nil {
		return WorksheetAt(*q.WorksheetIndex)
	}
	return WorksheetAt(0)
}

// Baseline returns the options a related worksheet query inherits.
func (q *QueryArgs) Baseline() ConstructorArgs {
	strict := q.StrictMapping
	return ConstructorArgs{
		FileName:            q.FileName,
		Engine:              q.Engine,
		ColumnMappings:      q.ColumnMappings,
		Transformations:     q.Transformations,
		TypeTransformations: q.TypeTransformations,
		ForeignKeys:         q.ForeignKeys,
		StrictMapping:       &strict,
	}
}

// String returns a one line summary used for diagnostics.
func (q *QueryArgs) String() string {
	index := ""
	if q.WorksheetIndex != nil {
		index = strconv.Itoa(*q.WorksheetIndex)
	}

	mappings := make([]string, 0, q.ColumnMappings.Len())
	for _, m := range q.ColumnMappings.Entries() {
		mappings = append(mappings, fmt.Sprintf("[%s = '%s']", m.Key, m.Column))
	}

	transforms := make([]string, 0, q.Transformations.Len())
	for _, k := range q.Transformations.Keys() {
		transforms = append(transforms, k.Property())
	}

	typeTransforms := make([]string, 0, q.TypeTransformations.Len())
	for _, t := range q.TypeTransformations.Types() {
		typeTransforms = append(typeTransforms, TypeName(t))
	}

	foreignKeys := make([]string, 0, q.ForeignKeys.Len())
	for _, k := range q.ForeignKeys.Keys() {
		fk, _ := q.ForeignKeys.Resolve(k.Type(), k.Property())
		foreignKeys = append(foreignKeys, fmt.Sprintf("[%s -> '%s']", k, fk.WorksheetFor(k.Property())))
	}

	return fmt.Sprintf(
		"FileName: '%s'; WorksheetName: '%s'; WorksheetIndex: %s; StartRange: %s; EndRange: %s; NoHeader: %t; "+
			"ColumnMappings: %s; Transformations: %s; TypeTransformations: %s; ForeignKeys: %s; StrictMapping: %s",
		q.FileName, q.WorksheetName, index, q.StartRange, q.EndRange, q.NoHeader,
		strings.Join(mappings, " "),
		strings.Join(transforms, ", "),
		strings.Join(typeTransforms, ", "),
		strings.Join(foreignKeys, " "),
		q.StrictMapping,
	)
}
