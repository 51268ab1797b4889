package model

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueryArgs(t *testing.T) {
	t.Parallel()

	t.Run("stores are created when absent", func(t *testing.T) {
		t.Parallel()

		q := NewQueryArgs(ConstructorArgs{FileName: "book.xlsx"})
		require.NotNil(t, q.ColumnMappings)
		require.NotNil(t, q.Transformations)
		require.NotNil(t, q.TypeTransformations)
		require.NotNil(t, q.ForeignKeys)
		assert.Equal(t, StrictMappingNone, q.StrictMapping)
		assert.Empty(t, q.WorksheetName)
		assert.Nil(t, q.WorksheetIndex)
		assert.False(t, q.NoHeader)
	})

	t.Run("stores are shared by reference", func(t *testing.T) {
		t.Parallel()

		mappings := NewColumnMappings()
		strict := StrictMappingBoth
		q := NewQueryArgs(ConstructorArgs{ColumnMappings: mappings, StrictMapping: &strict})
		assert.Same(t, mappings, q.ColumnMappings)
		assert.Equal(t, StrictMappingBoth, q.StrictMapping)

		mappings.Add(reflect.TypeFor[company](), "CEO", "Boss")
		_, ok := q.ColumnMappings.Resolve(reflect.TypeFor[company](), "CEO")
		assert.True(t, ok)
	})
}

func TestBuildQueryArgs(t *testing.T) {
	t.Parallel()

	companyType := reflect.TypeFor[company]()

	t.Run("extra mappings do not leak into the baseline", func(t *testing.T) {
		t.Parallel()

		baseline := ConstructorArgs{FileName: "book.xlsx", ColumnMappings: NewColumnMappings()}
		q, err := BuildQueryArgs(baseline, Overrides{
			WorksheetName: "ColumnMappings",
			ExtraMappings: []ColumnMapping{{Key: NewTransformKey(companyType, "CEO"), Column: "Boss"}},
		})
		require.NoError(t, err)

		column, ok := q.ColumnMappings.Resolve(companyType, "CEO")
		require.True(t, ok)
		assert.Equal(t, "Boss", column)
		assert.Zero(t, baseline.ColumnMappings.Len())
	})

	t.Run("name and index are mutually exclusive", func(t *testing.T) {
		t.Parallel()

		index := 1
		_, err := BuildQueryArgs(ConstructorArgs{}, Overrides{WorksheetName: "People", WorksheetIndex: &index})
		require.ErrorIs(t, err, ErrAmbiguousWorksheet)
	})

	t.Run("invalid range", func(t *testing.T) {
		t.Parallel()

		_, err := BuildQueryArgs(ConstructorArgs{}, Overrides{StartRange: "D4", EndRange: "B2"})
		require.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("selector defaults to the first worksheet", func(t *testing.T) {
		t.Parallel()

		q, err := BuildQueryArgs(ConstructorArgs{}, Overrides{})
		require.NoError(t, err)
		index, ok := q.Selector().Index()
		assert.True(t, ok)
		assert.Equal(t, 0, index)

		q, err = BuildQueryArgs(ConstructorArgs{}, Overrides{WorksheetName: "People"})
		require.NoError(t, err)
		name, ok := q.Selector().Name()
		assert.True(t, ok)
		assert.Equal(t, "People", name)
	})

	t.Run("baseline round trip keeps stores", func(t *testing.T) {
		t.Parallel()

		strict := StrictMappingClass
		q, err := BuildQueryArgs(ConstructorArgs{FileName: "book.xlsx", StrictMapping: &strict}, Overrides{
			WorksheetName: "People",
			StartRange:    "B2",
			NoHeader:      true,
		})
		require.NoError(t, err)

		child := NewQueryArgs(q.Baseline())
		assert.Equal(t, "book.xlsx", child.FileName)
		assert.Same(t, q.ColumnMappings, child.ColumnMappings)
		assert.Same(t, q.ForeignKeys, child.ForeignKeys)
		assert.Equal(t, StrictMappingClass, child.StrictMapping)
		assert.Empty(t, child.WorksheetName)
		assert.Empty(t, child.StartRange)
		assert.False(t, child.NoHeader)
	})
}

func TestQueryArgs_String(t *testing.T) {
	t.Parallel()

	companyType := reflect.TypeFor[company]()
	index := 2
	strict := StrictMappingWorksheet

	mappings := NewColumnMappings()
	mappings.Add(companyType, "CEO", "Boss")
	mappings.Add(companyType, "Name", "Company Title")
	transforms := NewPropertyTransforms()
	transforms.Add(companyType, "Name", func(raw string) (any, error) { return raw, nil })
	typeTransforms := NewTypeTransforms()
	typeTransforms.Add(reflect.TypeFor[time.Time](), func(raw string) (any, error) { return nil, nil })
	foreignKeys := NewForeignKeys()
	foreignKeys.Add(reflect.TypeFor[group](), "Members", ForeignKey{Worksheet: "People"})

	q := NewQueryArgs(ConstructorArgs{
		FileName:            "Companies.xlsx",
		ColumnMappings:      mappings,
		Transformations:     transforms,
		TypeTransformations: typeTransforms,
		ForeignKeys:         foreignKeys,
		StrictMapping:       &strict,
	})
	q.WorksheetIndex = &index
	q.StartRange = "A1"
	q.EndRange = "C10"

	assert.Equal(t,
		"FileName: 'Companies.xlsx'; WorksheetName: ''; WorksheetIndex: 2; StartRange: A1; EndRange: C10; NoHeader: false; "+
			"ColumnMappings: [company.CEO = 'Boss'] [company.Name = 'Company Title']; Transformations: Name; "+
			"TypeTransformations: Time; ForeignKeys: [group.Members -> 'People']; StrictMapping: WorksheetStrict",
		q.String())
}

func TestParseCellRange(t *testing.T) {
	t.Parallel()

	t.Run("full range", func(t *testing.T) {
		t.Parallel()

		r, err := ParseCellRange("B2", "D10")
		require.NoError(t, err)
		assert.Equal(t, CellRange{FirstColumn: 2, FirstRow: 2, LastColumn: 4, LastRow: 10}, r)
		assert.Equal(t, 2, r.HeaderRow())

		first, last := r.Columns(3)
		assert.Equal(t, 2, first)
		assert.Equal(t, 3, last)
	})

	t.Run("open ended", func(t *testing.T) {
		t.Parallel()

		r, err := ParseCellRange("", "")
		require.NoError(t, err)
		assert.True(t, r.IsZero())
		assert.Equal(t, 1, r.HeaderRow())

		first, last := r.Columns(5)
		assert.Equal(t, 1, first)
		assert.Equal(t, 5, last)
	})

	t.Run("bad reference", func(t *testing.T) {
		t.Parallel()

		_, err := ParseCellRange("1A", "")
		require.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("column letters", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "A", ColumnLetter(1))
		assert.Equal(t, "AA", ColumnLetter(27))
	})
}

func TestParseOperator(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Operator{
		"=": OpEqual, "==": OpEqual, "!=": OpNotEqual, "<>": OpNotEqual,
		">=": OpGreaterEqual, "LIKE": OpLike, " contains ": OpContains,
	} {
		got, err := ParseOperator(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseOperator("~")
	require.ErrorIs(t, err, ErrUnsupportedOperator)
}
