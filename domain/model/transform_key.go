package model

import "reflect"

// TransformKey identifies a property on a target type.
// Two keys are equal when both the type and the property name are equal,
// so TransformKey can be used directly as a map key.
type TransformKey struct {
	typ      reflect.Type
	property string
}

// NewTransformKey creates a new TransformKey.
// Pointer types are reduced to the type they point to, so *T and T share keys.
func NewTransformKey(t reflect.Type, property string) TransformKey {
	return TransformKey{typ: Indirect(t), property: property}
}

// Type returns the target type.
func (k TransformKey) Type() reflect.Type {
	return k.typ
}

// Property returns the property name.
func (k TransformKey) Property() string {
	return k.property
}

// String returns "Type.Property".
func (k TransformKey) String() string {
	return TypeName(k.typ) + "." + k.property
}

// Indirect returns the element type of pointer types.
func Indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// TypeName returns a short, human readable name for t.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
