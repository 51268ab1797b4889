package sheetquery

import (
	"context"
	"errors"
	"iter"
	"reflect"
	"strings"

	"github.com/nao1215/sheetquery/domain/model"
	"github.com/nao1215/sheetquery/log"
)

// materializer turns raw rows into target values.
type materializer interface {
	materialize(ctx context.Context, raw model.RawRow) (reflect.Value, error)
}

type filter struct {
	property string
	operator model.Operator
	value    any
}

// Query is a lazy query of one worksheet whose rows are materialized as T.
// T is a struct, a pointer to a struct, or Row.
//
// Nothing is read until the query is ranged over with All or collected with
// ToSlice, First or Count. Every run reads the source again.
type Query[T any] struct {
	factory   *QueryFactory
	overrides model.Overrides
	filters   []filter
	err       error
}

// Worksheet starts a query of the worksheet called name.
// Worksheet names are matched case-insensitively.
func Worksheet[T any](f *QueryFactory, name string) *Query[T] {
	return &Query[T]{factory: f, overrides: model.Overrides{WorksheetName: name}}
}

// WorksheetAt starts a query of the worksheet at the zero-based position index.
func WorksheetAt[T any](f *QueryFactory, index int) *Query[T] {
	return &Query[T]{factory: f, overrides: model.Overrides{WorksheetIndex: &index}}
}

func (q *Query[T]) fail(err error) *Query[T] {
	q.err = errors.Join(q.err, err)
	return q
}

// Where keeps the rows whose property compares to value with op.
// Supported operators are =, ==, !=, <>, <, <=, >, >=, like and contains.
// Numeric values compare numerically, other values compare as text.
// The property is translated to its mapped column. Names that are not a
// property of T are used as column names.
func (q *Query[T]) Where(property, op string, value any) *Query[T] {
	operator, err := model.ParseOperator(op)
	if err != nil {
		return q.fail(err)
	}
	q.filters = append(q.filters, filter{property: property, operator: operator, value: value})
	return q
}

// Range limits the query to the cells between start and end, such as "B2"
// and "D10". The first row of the range is the header unless NoHeader is set.
// Either bound may be empty.
func (q *Query[T]) Range(start, end string) *Query[T] {
	q.overrides.StartRange = start
	q.overrides.EndRange = end
	return q
}

// NoHeader treats the first row as data. Columns are named by letter.
func (q *Query[T]) NoHeader() *Query[T] {
	q.overrides.NoHeader = true
	return q
}

// Map maps property of T to column for this query only.
func (q *Query[T]) Map(property, column string) *Query[T] {
	t, _, err := lookupProperty[T](property)
	if err != nil {
		return q.fail(err)
	}
	q.overrides.ExtraMappings = append(q.overrides.ExtraMappings, model.ColumnMapping{
		Key:    model.NewTransformKey(t, property),
		Column: column,
	})
	return q
}

// Args returns the arguments the query runs with.
func (q *Query[T]) Args() (*model.QueryArgs, error) {
	if q.err != nil {
		return nil, q.err
	}
	return model.BuildQueryArgs(q.factory.baseline(), q.overrides)
}

// sheetQuery translates the query for the engine.
func (q *Query[T]) sheetQuery(args *model.QueryArgs) (model.SheetQuery, error) {
	r, err := args.Range()
	if err != nil {
		return model.SheetQuery{}, err
	}
	sq := model.SheetQuery{
		Worksheet: args.Selector(),
		Range:     r,
		NoHeader:  args.NoHeader,
	}

	var fields []targetField
	t, err := structType(reflect.TypeFor[T]())
	if err == nil && t != rowType {
		fields = targetFields(t)
	}
	for _, f := range q.filters {
		column := f.property
		for _, field := range fields {
			if field.Name == f.property {
				column, _ = columnFor(args, t, field)
				break
			}
		}
		sq.Conditions = append(sq.Conditions, model.Condition{Column: column, Operator: f.operator, Value: f.value})
	}
	return sq, nil
}

func (q *Query[T]) plan(ctx context.Context, session Session, args *model.QueryArgs, sq model.SheetQuery) (materializer, error) {
	t := reflect.TypeFor[T]()
	if model.Indirect(t) == rowType {
		header, err := session.HeaderRow(ctx, sq)
		if err != nil {
			return nil, err
		}
		return newRowBuilder(header), nil
	}
	resolver := newRelationResolver(session, args, q.factory.logger)
	return planQuery(ctx, session, args, sq, t, resolver, q.factory.logger)
}

// All runs the query and yields the rows one by one. Enumeration stops at
// the first error, which is yielded with the zero T.
//
//	for company, err := range query.All(ctx) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(company.Name)
//	}
func (q *Query[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		args, err := q.Args()
		if err != nil {
			yield(zero, err)
			return
		}
		sq, err := q.sheetQuery(args)
		if err != nil {
			yield(zero, err)
			return
		}

		session, err := q.factory.open(ctx, args)
		if err != nil {
			yield(zero, err)
			return
		}
		defer session.Close()

		logger := q.factory.logger
		logger.Debug("running query", log.Fields{
			"args":       args.String(),
			"conditions": conditionStrings(sq.Conditions),
		})

		m, err := q.plan(ctx, session, args, sq)
		if err != nil {
			yield(zero, err)
			return
		}
		for raw, err := range session.ExecuteQuery(ctx, sq) {
			if err != nil {
				yield(zero, err)
				return
			}
			v, err := m.materialize(ctx, raw)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(asTarget[T](v), nil) {
				return
			}
		}
	}
}

func conditionStrings(conditions []model.Condition) string {
	parts := make([]string, len(conditions))
	for i, c := range conditions {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}

// ToSlice runs the query and collects every row.
func (q *Query[T]) ToSlice(ctx context.Context) ([]T, error) {
	var rows []T
	for row, err := range q.All(ctx) {
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// First returns the first row, or ErrNoRows.
func (q *Query[T]) First(ctx context.Context) (T, error) {
	for row, err := range q.All(ctx) {
		return row, err
	}
	var zero T
	return zero, ErrNoRows
}

// Count runs the query and returns the number of rows.
func (q *Query[T]) Count(ctx context.Context) (int, error) {
	n := 0
	for _, err := range q.All(ctx) {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}
