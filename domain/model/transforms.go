package model

import (
	"cmp"
	"maps"
	"reflect"
	"slices"
)

// TransformFunc converts a raw cell value into a property value.
// Returning a nil value sets the property to its zero value.
type TransformFunc func(raw string) (any, error)

// RelationFunc selects the rows related to parent.
// related holds every row of the related worksheet as a []C and the
// returned value must be a []C as well.
type RelationFunc func(parent, related any) any

// ForeignKey describes a property populated from another worksheet.
type ForeignKey struct {
	// Worksheet is the related worksheet name. Empty means the property name.
	Worksheet string
	// RelatedType is the element type of the related slice.
	RelatedType reflect.Type
	// Relate picks the related rows for one parent.
	Relate RelationFunc
}

// WorksheetFor returns the related worksheet name, inferring it from
// the property name when none was registered.
func (fk ForeignKey) WorksheetFor(property string) string {
	if fk.Worksheet != "" {
		return fk.Worksheet
	}
	return property
}

// PropertyTransforms stores transforms for a specific (type, property) pair.
type PropertyTransforms struct {
	entries map[TransformKey]TransformFunc
}

// NewPropertyTransforms creates an empty store.
func NewPropertyTransforms() *PropertyTransforms {
	return &PropertyTransforms{entries: make(map[TransformKey]TransformFunc)}
}

// Add registers fn for property of t, replacing any previous transform.
func (p *PropertyTransforms) Add(t reflect.Type, property string, fn TransformFunc) {
	p.entries[NewTransformKey(t, property)] = fn
}

// Resolve returns the transform registered for property of t.
func (p *PropertyTransforms) Resolve(t reflect.Type, property string) (TransformFunc, bool) {
	fn, ok := p.entries[NewTransformKey(t, property)]
	return fn, ok
}

// Len returns the number of transforms.
func (p *PropertyTransforms) Len() int {
	return len(p.entries)
}

// Keys returns the registered keys in a stable order.
func (p *PropertyTransforms) Keys() []TransformKey {
	return sortedKeys(p.entries)
}

// TypeTransforms stores transforms applied to every property of a value type.
type TypeTransforms struct {
	entries map[reflect.Type]TransformFunc
}

// NewTypeTransforms creates an empty store.
func NewTypeTransforms() *TypeTransforms {
	return &TypeTransforms{entries: make(map[reflect.Type]TransformFunc)}
}

// Add registers fn for properties declared with exactly type t.
func (tt *TypeTransforms) Add(t reflect.Type, fn TransformFunc) {
	tt.entries[t] = fn
}

// Resolve returns the transform registered for t.
func (tt *TypeTransforms) Resolve(t reflect.Type) (TransformFunc, bool) {
	fn, ok := tt.entries[t]
	return fn, ok
}

// Len returns the number of transforms.
func (tt *TypeTransforms) Len() int {
	return len(tt.entries)
}

// Types returns the registered types ordered by name.
func (tt *TypeTransforms) Types() []reflect.Type {
	types := slices.Collect(maps.Keys(tt.entries))
	slices.SortFunc(types, func(a, b reflect.Type) int {
		return cmp.Compare(a.String(), b.String())
	})
	return types
}

// ForeignKeys stores relation properties.
type ForeignKeys struct {
	entries map[TransformKey]ForeignKey
}

// NewForeignKeys creates an empty store.
func NewForeignKeys() *ForeignKeys {
	return &ForeignKeys{entries: make(map[TransformKey]ForeignKey)}
}

// Add registers fk for property of t.
func (f *ForeignKeys) Add(t reflect.Type, property string, fk ForeignKey) {
	f.entries[NewTransformKey(t, property)] = fk
}

// Resolve returns the foreign key registered for property of t.
func (f *ForeignKeys) Resolve(t reflect.Type, property string) (ForeignKey, bool) {
	fk, ok := f.entries[NewTransformKey(t, property)]
	return fk, ok
}

// Len returns the number of foreign keys.
func (f *ForeignKeys) Len() int {
	return len(f.entries)
}

// Keys returns the registered keys in a stable order.
func (f *ForeignKeys) Keys() []TransformKey {
	return sortedKeys(f.entries)
}
