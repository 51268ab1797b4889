package sheetquery

import (
	"context"
	"fmt"
	"reflect"

	"github.com/nao1215/sheetquery/domain/model"
	"github.com/nao1215/sheetquery/log"
)

// MaxRelationDepth is the deepest chain of nested relations that is resolved.
const MaxRelationDepth = 8

type relationKey struct {
	worksheet string
	typ       reflect.Type
}

// relationResolver populates foreign key properties by querying the related
// worksheet. The related rows are read once per worksheet and type for the
// whole parent query, and every parent receives its own copy.
type relationResolver struct {
	session Session
	args    *model.QueryArgs
	logger  log.Logger
	depth   int
	cache   map[relationKey]reflect.Value
}

func newRelationResolver(session Session, args *model.QueryArgs, logger log.Logger) *relationResolver {
	return &relationResolver{
		session: session,
		args:    args,
		logger:  log.NewLogger(logger),
		cache:   make(map[relationKey]reflect.Value),
	}
}

// resolve sets the relation property of parent described by plan.
func (r *relationResolver) resolve(ctx context.Context, parent reflect.Value, plan fieldPlan) error {
	worksheet := plan.fk.WorksheetFor(plan.property)
	related, err := r.load(ctx, worksheet, plan.fk.RelatedType)
	if err != nil {
		return NewErrorContext("relation", r.args.FileName).
			WithWorksheet(worksheet).
			WithProperty(plan.property, "").
			Error(err)
	}

	rows := reflect.AppendSlice(reflect.MakeSlice(related.Type(), 0, related.Len()), related)
	result := plan.fk.Relate(parent.Addr().Interface(), rows.Interface())

	field := parent.FieldByIndex(plan.index)
	if result == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	rv := reflect.ValueOf(result)
	if !rv.Type().AssignableTo(field.Type()) {
		return fmt.Errorf("%w: %s.%s received %s", ErrInvalidForeignKey, model.TypeName(parent.Type()), plan.property, rv.Type())
	}
	field.Set(rv)
	return nil
}

// load returns every row of worksheet materialized as a slice of t.
func (r *relationResolver) load(ctx context.Context, worksheet string, t reflect.Type) (reflect.Value, error) {
	key := relationKey{worksheet: model.NormalizeColumnName(worksheet), typ: t}
	if rows, ok := r.cache[key]; ok {
		return rows, nil
	}
	if r.depth >= MaxRelationDepth {
		return reflect.Value{}, fmt.Errorf("%w: more than %d levels", ErrRelationDepth, MaxRelationDepth)
	}

	args := model.NewQueryArgs(r.args.Baseline())
	args.WorksheetName = worksheet
	child := &relationResolver{
		session: r.session,
		args:    args,
		logger:  r.logger,
		depth:   r.depth + 1,
		cache:   r.cache,
	}

	r.logger.Debug("loading related worksheet", log.Fields{
		log.WorksheetField: worksheet,
		"type":             model.TypeName(t),
		"depth":            child.depth,
	})
	rows, err := collect(ctx, r.session, args, model.SheetQuery{Worksheet: args.Selector()}, t, child, r.logger)
	if err != nil {
		return reflect.Value{}, err
	}
	r.cache[key] = rows
	return rows, nil
}

// collect runs q and materializes every row as an element of type t.
func collect(ctx context.Context, session Session, args *model.QueryArgs, q model.SheetQuery, t reflect.Type,
	resolver *relationResolver, logger log.Logger) (reflect.Value, error) {
	m, err := planQuery(ctx, session, args, q, t, resolver, logger)
	if err != nil {
		return reflect.Value{}, err
	}

	rows := reflect.MakeSlice(reflect.SliceOf(t), 0, 0)
	for raw, err := range session.ExecuteQuery(ctx, q) {
		if err != nil {
			return reflect.Value{}, err
		}
		v, err := m.materialize(ctx, raw)
		if err != nil {
			return reflect.Value{}, err
		}
		if t.Kind() == reflect.Pointer {
			v = v.Addr()
		}
		rows = reflect.Append(rows, v)
	}
	return rows, nil
}

// planQuery reads the header of q and builds the materializer for t.
func planQuery(ctx context.Context, session Session, args *model.QueryArgs, q model.SheetQuery, t reflect.Type,
	resolver *relationResolver, logger log.Logger) (*rowMaterializer, error) {
	worksheet, err := session.ResolveWorksheet(ctx, q.Worksheet)
	if err != nil {
		return nil, err
	}
	header, err := session.HeaderRow(ctx, q)
	if err != nil {
		return nil, err
	}
	return newRowMaterializer(args, t, worksheet, header, resolver, logger)
}
