package sheetquery

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/nao1215/sheetquery/domain/model"
	"github.com/nao1215/sheetquery/log"
)

// sheetTag is the struct tag naming the column of a field.
// A "-" value excludes the field.
const sheetTag = "sheet"

type sourceKind int

const (
	sourceColumn sourceKind = iota
	sourcePropertyTransform
	sourceTypeTransform
	sourceRelation
	sourceMissing
)

func (k sourceKind) String() string {
	switch k {
	case sourceColumn:
		return "column"
	case sourcePropertyTransform:
		return "property transform"
	case sourceTypeTransform:
		return "type transform"
	case sourceRelation:
		return "relation"
	default:
		return "missing"
	}
}

// fieldPlan records where one property takes its value from.
type fieldPlan struct {
	index     []int
	property  string
	typ       reflect.Type
	kind      sourceKind
	column    string
	transform model.TransformFunc
	fk        model.ForeignKey
}

// rowMaterializer turns raw rows into values of one struct type.
// The plan is built once per query.
type rowMaterializer struct {
	args      *model.QueryArgs
	typ       reflect.Type
	worksheet string
	columns   []fieldPlan
	relations []fieldPlan
	resolver  *relationResolver
}

// targetField is a settable property of a struct type.
type targetField struct {
	reflect.StructField
	column string
	tagged bool
}

// targetFields lists the exported, non-embedded fields of t that are not
// excluded with a "-" sheet tag.
func targetFields(t reflect.Type) []targetField {
	fields := make([]targetField, 0, t.NumField())
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous || len(f.Index) != 1 {
			continue
		}
		tag, tagged := f.Tag.Lookup(sheetTag)
		if tag == "-" {
			continue
		}
		column := f.Name
		if tag = strings.TrimSpace(tag); tag != "" {
			column = tag
		} else {
			tagged = false
		}
		fields = append(fields, targetField{StructField: f, column: column, tagged: tagged})
	}
	return fields
}

// structType returns the struct type behind t.
func structType(t reflect.Type) (reflect.Type, error) {
	if t == nil {
		return nil, ErrNotStruct
	}
	if s := model.Indirect(t); s.Kind() == reflect.Struct {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotStruct, t)
}

// columnFor returns the column a property reads from and whether the column
// was named explicitly, by a registered mapping or a sheet tag.
func columnFor(args *model.QueryArgs, t reflect.Type, f targetField) (string, bool) {
	if column, ok := args.ColumnMappings.Resolve(t, f.Name); ok {
		return column, true
	}
	return f.column, f.tagged
}

// newRowMaterializer plans how every property of t is populated from a
// worksheet with the given header. Mapped columns missing from the header
// are reported once through logger. Strict mapping violations fail here,
// before any row is read.
func newRowMaterializer(args *model.QueryArgs, t reflect.Type, worksheet string, header []string,
	resolver *relationResolver, logger log.Logger) (*rowMaterializer, error) {
	t, err := structType(t)
	if err != nil {
		return nil, err
	}
	logger = log.NewLogger(logger)

	headerIndex := make(map[string]string, len(header))
	for _, name := range header {
		key := model.NormalizeColumnName(name)
		if key == "" {
			continue
		}
		if _, ok := headerIndex[key]; !ok {
			headerIndex[key] = name
		}
	}

	m := &rowMaterializer{args: args, typ: t, worksheet: worksheet, resolver: resolver}
	used := make(map[string]bool, len(headerIndex))
	var unmatched []string

	for _, f := range targetFields(t) {
		plan := fieldPlan{index: f.Index, property: f.Name, typ: f.Type}

		if fk, ok := args.ForeignKeys.Resolve(t, f.Name); ok {
			if resolver == nil {
				return nil, fmt.Errorf("%w: %s.%s", ErrRelationUnavailable, model.TypeName(t), f.Name)
			}
			plan.kind = sourceRelation
			plan.fk = fk
			m.relations = append(m.relations, plan)
			continue
		}

		column, explicit := columnFor(args, t, f)
		plan.column = column
		key, ok := headerIndex[model.NormalizeColumnName(column)]
		if !ok {
			plan.kind = sourceMissing
			unmatched = append(unmatched, f.Name)
			if explicit {
				logger.Warn(nil, missingColumnMessage(column, f.Name, worksheet), log.Fields{
					log.WorksheetField: worksheet,
					log.PropertyField:  f.Name,
					log.ColumnField:    column,
				})
			}
			continue
		}
		plan.column = key
		used[model.NormalizeColumnName(key)] = true

		if fn, ok := args.Transformations.Resolve(t, f.Name); ok {
			plan.kind = sourcePropertyTransform
			plan.transform = fn
		} else if fn, ok := args.TypeTransformations.Resolve(f.Type); ok {
			plan.kind = sourceTypeTransform
			plan.transform = fn
		} else {
			plan.kind = sourceColumn
		}
		m.columns = append(m.columns, plan)
	}

	for _, plan := range slices.Concat(m.columns, m.relations) {
		logger.Trace("property planned", log.Fields{
			log.WorksheetField: worksheet,
			log.PropertyField:  plan.property,
			log.ColumnField:    plan.column,
			"source":           plan.kind.String(),
		})
	}

	if args.StrictMapping.ChecksProperties() && len(unmatched) > 0 {
		return nil, NewErrorContext("plan", args.FileName).WithWorksheet(worksheet).
			WithDetails(fmt.Sprintf("properties without a column: %s", strings.Join(unmatched, ", "))).
			Error(ErrStrictMapping)
	}
	if args.StrictMapping.ChecksColumns() {
		var unused []string
		for _, key := range slices.Sorted(maps.Keys(headerIndex)) {
			if !used[key] {
				unused = append(unused, headerIndex[key])
			}
		}
		if len(unused) > 0 {
			return nil, NewErrorContext("plan", args.FileName).WithWorksheet(worksheet).
				WithDetails(fmt.Sprintf("columns without a property: %s", strings.Join(unused, ", "))).
				Error(ErrStrictMapping)
		}
	}
	return m, nil
}

func missingColumnMessage(column, property, worksheet string) string {
	return fmt.Sprintf("'%s' column that is mapped to the '%s' property does not exist in the '%s' worksheet",
		column, property, worksheet)
}

// materialize builds one value from raw. Column properties are set before
// relation properties so relation functions see the parent's values.
func (m *rowMaterializer) materialize(ctx context.Context, raw model.RawRow) (reflect.Value, error) {
	v := reflect.New(m.typ).Elem()

	for _, plan := range m.columns {
		value, ok := raw[plan.column]
		if !ok {
			continue
		}
		result, err := m.resolve(plan, value)
		if err != nil {
			return reflect.Value{}, NewErrorContext("materialize", m.args.FileName).
				WithWorksheet(m.worksheet).
				WithProperty(plan.property, plan.column).
				Error(err)
		}
		v.FieldByIndex(plan.index).Set(result)
	}

	for _, plan := range m.relations {
		if err := m.resolver.resolve(ctx, v, plan); err != nil {
			return reflect.Value{}, err
		}
	}
	return v, nil
}

func (m *rowMaterializer) resolve(plan fieldPlan, raw string) (reflect.Value, error) {
	switch plan.kind {
	case sourcePropertyTransform, sourceTypeTransform:
		result, err := plan.transform(raw)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %w", ErrTransformFailed, err)
		}
		return assignResult(result, plan.typ)
	default:
		return coerceValue(raw, plan.typ)
	}
}

// MaterializeRow populates a T from a single raw row using the mappings and
// transforms of args. Columns are matched against the keys of raw. Missing
// mapped columns are reported to logger, which may be nil.
//
// Relation properties need a source to query, so a T with a registered
// foreign key returns ErrRelationUnavailable.
func MaterializeRow[T any](args *model.QueryArgs, raw model.RawRow, logger log.Logger) (T, error) {
	var zero T
	if args == nil {
		args = model.NewQueryArgs(model.ConstructorArgs{})
	}

	header := slices.Sorted(maps.Keys(raw))
	m, err := newRowMaterializer(args, reflect.TypeFor[T](), args.WorksheetName, header, nil, logger)
	if err != nil {
		return zero, err
	}
	v, err := m.materialize(context.Background(), raw)
	if err != nil {
		return zero, err
	}
	return asTarget[T](v), nil
}

// asTarget returns the struct value v as T, which is the struct type or a
// pointer to it.
func asTarget[T any](v reflect.Value) T {
	if reflect.TypeFor[T]().Kind() == reflect.Pointer {
		return v.Addr().Interface().(T)
	}
	return v.Interface().(T)
}
