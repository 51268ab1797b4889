package model

import (
	"cmp"
	"maps"
	"reflect"
	"slices"
)

// ColumnMappings maps (type, property) pairs to worksheet column names.
// Registering a mapping twice keeps the last one.
type ColumnMappings struct {
	entries map[TransformKey]string
}

// ColumnMapping is a single registered mapping.
type ColumnMapping struct {
	Key    TransformKey
	Column string
}

// NewColumnMappings creates an empty mapping store.
func NewColumnMappings() *ColumnMappings {
	return &ColumnMappings{entries: make(map[TransformKey]string)}
}

// Add maps property of t to column.
func (m *ColumnMappings) Add(t reflect.Type, property, column string) {
	m.entries[NewTransformKey(t, property)] = column
}

// Resolve returns the column mapped to property of t.
func (m *ColumnMappings) Resolve(t reflect.Type, property string) (string, bool) {
	column, ok := m.entries[NewTransformKey(t, property)]
	return column, ok
}

// Len returns the number of mappings.
func (m *ColumnMappings) Len() int {
	return len(m.entries)
}

// Clone returns an independent copy of the store.
func (m *ColumnMappings) Clone() *ColumnMappings {
	return &ColumnMappings{entries: maps.Clone(m.entries)}
}

// Entries returns all mappings ordered by type name, then property name.
func (m *ColumnMappings) Entries() []ColumnMapping {
	keys := sortedKeys(m.entries)
	result := make([]ColumnMapping, 0, len(keys))
	for _, key := range keys {
		result = append(result, ColumnMapping{Key: key, Column: m.entries[key]})
	}
	return result
}

func sortedKeys[V any](entries map[TransformKey]V) []TransformKey {
	keys := slices.Collect(maps.Keys(entries))
	slices.SortFunc(keys, func(a, b TransformKey) int {
		return cmp.Or(
			cmp.Compare(TypeName(a.typ), TypeName(b.typ)),
			cmp.Compare(a.property, b.property),
		)
	})
	return keys
}
