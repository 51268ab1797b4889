package sheetquery

import (
	"fmt"
	"reflect"

	"github.com/nao1215/sheetquery/domain/model"
)

// AddMapping maps property of T to a worksheet column with a different name.
// Mapping the same property again replaces the previous column.
//
//	err := sheetquery.AddMapping[Company](factory, "CEO", "Boss")
func AddMapping[T any](f *QueryFactory, property, column string) error {
	t, _, err := lookupProperty[T](property)
	if err != nil {
		return err
	}
	f.mappings.Add(t, property, column)
	return nil
}

// AddTransformation registers fn to convert the raw value of property of T.
// It takes precedence over type transformations and the default conversion.
// A nil result leaves the property at its zero value.
func AddTransformation[T any](f *QueryFactory, property string, fn model.TransformFunc) error {
	t, _, err := lookupProperty[T](property)
	if err != nil {
		return err
	}
	f.transforms.Add(t, property, fn)
	return nil
}

// AddMappingWithTransformation maps property of T to column and registers fn
// to convert its raw value, replacing any earlier mapping or transformation
// of the property.
//
//	err := sheetquery.AddMappingWithTransformation[Company](factory, "IsActive", "Active",
//		func(raw string) (bool, error) { return raw == "Y", nil })
func AddMappingWithTransformation[T, V any](f *QueryFactory, property, column string, fn func(raw string) (V, error)) error {
	t, _, err := lookupProperty[T](property)
	if err != nil {
		return err
	}
	f.mappings.Add(t, property, column)
	f.transforms.Add(t, property, func(raw string) (any, error) {
		return fn(raw)
	})
	return nil
}

// AddTypeTransformation registers fn for every property declared with type V,
// in any struct queried by f.
//
//	sheetquery.AddTypeTransformation(factory, func(raw string) (bool, error) {
//		return raw == "Y", nil
//	})
func AddTypeTransformation[V any](f *QueryFactory, fn func(raw string) (V, error)) {
	f.typeTransforms.Add(reflect.TypeFor[V](), func(raw string) (any, error) {
		return fn(raw)
	})
}

// AddForeignKey populates property of P, a []C, from another worksheet.
// For every P the rows of the related worksheet are materialized as C and
// relate picks the ones belonging to the parent. The worksheet defaults to
// the property name.
//
//	err := sheetquery.AddForeignKey(factory, "Members",
//		func(g Group, people []Person) []Person {
//			return slices.DeleteFunc(people, func(p Person) bool { return p.GroupID != g.ID })
//		}, "People")
func AddForeignKey[P, C any](f *QueryFactory, property string, relate func(P, []C) []C, worksheet ...string) error {
	t, field, err := lookupProperty[P](property)
	if err != nil {
		return err
	}
	if want := reflect.TypeFor[[]C](); field.Type != want {
		return fmt.Errorf("%w: %s.%s is %s, want %s", ErrInvalidForeignKey, model.TypeName(t), property, field.Type, want)
	}
	if _, err := structType(reflect.TypeFor[C]()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidForeignKey, err)
	}

	fk := model.ForeignKey{
		RelatedType: reflect.TypeFor[C](),
		Relate: func(parent, related any) any {
			var p P
			switch v := parent.(type) {
			case P:
				p = v
			case *P:
				p = *v
			}
			rows, _ := related.([]C)
			return relate(p, rows)
		},
	}
	if len(worksheet) > 0 {
		fk.Worksheet = worksheet[0]
	}
	f.foreignKeys.Add(t, property, fk)
	return nil
}

// lookupProperty returns the struct type of T and its field named property.
func lookupProperty[T any](property string) (reflect.Type, reflect.StructField, error) {
	t, err := structType(reflect.TypeFor[T]())
	if err != nil {
		return nil, reflect.StructField{}, err
	}
	for _, f := range targetFields(t) {
		if f.Name == property {
			return t, f.StructField, nil
		}
	}
	return nil, reflect.StructField{}, fmt.Errorf("%w: %s.%s", ErrPropertyNotFound, model.TypeName(t), property)
}
