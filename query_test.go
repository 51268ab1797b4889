package sheetquery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/sheetquery/domain/model"
)

func companyNames[T any](rows []T, name func(T) string) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = name(r)
	}
	return names
}

func TestQuery_DefaultMapping(t *testing.T) {
	t.Parallel()

	factory := NewQueryFactory(writeCompanies(t))
	companies, err := Worksheet[Company](factory, "Companies").ToSlice(t.Context())
	require.NoError(t, err)
	require.Len(t, companies, len(companyRows))

	acme := companies[0]
	assert.Equal(t, "ACME", acme.Name)
	assert.Equal(t, "Bugs Bunny", acme.CEO)
	assert.Equal(t, 25, acme.EmployeeCount)
	assert.Equal(t, 2008, acme.StartDate.Year())
	assert.True(t, acme.IsActive)
	assert.False(t, companies[2].IsActive)
}

func TestQuery_WorksheetSelection(t *testing.T) {
	t.Parallel()

	factory := NewQueryFactory(writeCompanies(t))

	t.Run("first worksheet by position", func(t *testing.T) {
		t.Parallel()

		first, err := WorksheetAt[Company](factory, 0).First(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "ACME", first.Name)
	})

	t.Run("name is case insensitive", func(t *testing.T) {
		t.Parallel()

		n, err := Worksheet[Company](factory, "companies").Count(t.Context())
		require.NoError(t, err)
		assert.Equal(t, len(companyRows), n)
	})

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()

		_, err := Worksheet[Company](factory, "Missing").ToSlice(t.Context())
		require.ErrorIs(t, err, model.ErrWorksheetNotFound)
		assert.Contains(t, err.Error(), "Companies, ColumnMappings")
	})

	t.Run("index out of range", func(t *testing.T) {
		t.Parallel()

		_, err := WorksheetAt[Company](factory, 5).ToSlice(t.Context())
		require.ErrorIs(t, err, model.ErrWorksheetNotFound)
	})
}

func TestQuery_Where(t *testing.T) {
	t.Parallel()

	factory := NewQueryFactory(writeCompanies(t))

	tests := []struct {
		name     string
		property string
		op       string
		value    any
		want     []string
	}{
		{name: "equal text", property: "CEO", op: "==", value: "Bugs Bunny", want: []string{"ACME"}},
		{name: "numeric greater", property: "EmployeeCount", op: ">", value: 200, want: []string{"Smith Smitherson", "IDONTKNOW"}},
		{name: "numeric less or equal", property: "EmployeeCount", op: "<=", value: 16, want: []string{"Word Made Flesh", "Jacob & Jacobs"}},
		{name: "not equal", property: "Name", op: "<>", value: "ACME", want: []string{
			"Word Made Flesh", "Anderson Electric", "KarlNet", "Jacob & Jacobs", "Smith Smitherson", "IDONTKNOW",
		}},
		{name: "like", property: "Name", op: "LIKE", value: "%son%", want: []string{"Anderson Electric", "Smith Smitherson"}},
		{name: "contains", property: "CEO", op: "contains", value: "Jacob", want: []string{"Jacob & Jacobs"}},
		{name: "bool column as text", property: "IsActive", op: "=", value: "FALSE", want: []string{"Anderson Electric", "Jacob & Jacobs", "IDONTKNOW"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			companies, err := Worksheet[Company](factory, "Companies").
				Where(tt.property, tt.op, tt.value).
				ToSlice(t.Context())
			require.NoError(t, err)
			assert.Equal(t, tt.want, companyNames(companies, func(c Company) string { return c.Name }))
		})
	}

	t.Run("conditions are combined", func(t *testing.T) {
		t.Parallel()

		companies, err := Worksheet[Company](factory, "Companies").
			Where("EmployeeCount", ">=", 25).
			Where("EmployeeCount", "<", 150).
			ToSlice(t.Context())
		require.NoError(t, err)
		assert.Equal(t, []string{"ACME", "Anderson Electric", "KarlNet"}, companyNames(companies, func(c Company) string { return c.Name }))
	})

	t.Run("mapped property filters its column", func(t *testing.T) {
		t.Parallel()

		companies, err := Worksheet[TaggedCompany](factory, "ColumnMappings").
			Where("CEO", "=", "Ty Ty").
			ToSlice(t.Context())
		require.NoError(t, err)
		require.Len(t, companies, 1)
		assert.Equal(t, "IDONTKNOW", companies[0].Name)
	})

	t.Run("unsupported operator", func(t *testing.T) {
		t.Parallel()

		_, err := Worksheet[Company](factory, "Companies").Where("Name", "~", "x").ToSlice(t.Context())
		require.ErrorIs(t, err, model.ErrUnsupportedOperator)
	})

	t.Run("unknown column", func(t *testing.T) {
		t.Parallel()

		_, err := Worksheet[Company](factory, "Companies").Where("Revenue", ">", 1).ToSlice(t.Context())
		require.ErrorIs(t, err, model.ErrColumnNotFound)
	})
}

func TestQuery_ColumnMappings(t *testing.T) {
	t.Parallel()

	path := writeCompanies(t)

	t.Run("registered mappings", func(t *testing.T) {
		t.Parallel()

		factory := NewQueryFactory(path)
		require.NoError(t, AddMapping[Company](factory, "Name", "Company Title"))
		require.NoError(t, AddMapping[Company](factory, "CEO", "Boss"))
		require.NoError(t, AddMapping[Company](factory, "EmployeeCount", "Employees"))
		require.NoError(t, AddMapping[Company](factory, "StartDate", "Start Date"))
		require.NoError(t, AddMapping[Company](factory, "IsActive", "Active"))

		companies, err := Worksheet[Company](factory, "ColumnMappings").ToSlice(t.Context())
		require.NoError(t, err)
		require.Len(t, companies, len(companyRows))
		assert.Equal(t, "KarlNet", companies[3].Name)
		assert.Equal(t, "Paul Karlsberg", companies[3].CEO)
		assert.Equal(t, 145, companies[3].EmployeeCount)
	})

	t.Run("struct tags", func(t *testing.T) {
		t.Parallel()

		companies, err := Worksheet[*TaggedCompany](NewQueryFactory(path), "ColumnMappings").ToSlice(t.Context())
		require.NoError(t, err)
		require.Len(t, companies, len(companyRows))
		assert.Equal(t, "Ty Ty", companies[6].CEO)
		assert.Empty(t, companies[6].Ignored)
	})

	t.Run("registered mapping overrides the tag", func(t *testing.T) {
		t.Parallel()

		factory := NewQueryFactory(path)
		require.NoError(t, AddMapping[TaggedCompany](factory, "CEO", "Company Title"))
		first, err := Worksheet[TaggedCompany](factory, "ColumnMappings").First(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "ACME", first.CEO)
	})

	t.Run("per query mapping does not leak", func(t *testing.T) {
		t.Parallel()

		factory := NewQueryFactory(path)
		first, err := Worksheet[Company](factory, "ColumnMappings").Map("CEO", "Boss").First(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "Bugs Bunny", first.CEO)

		args, err := Worksheet[Company](factory, "ColumnMappings").Args()
		require.NoError(t, err)
		assert.Zero(t, args.ColumnMappings.Len())
	})

	t.Run("unknown property", func(t *testing.T) {
		t.Parallel()

		factory := NewQueryFactory(path)
		require.ErrorIs(t, AddMapping[Company](factory, "Revenue", "Money"), ErrPropertyNotFound)

		_, err := Worksheet[Company](factory, "Companies").Map("Revenue", "Money").ToSlice(t.Context())
		require.ErrorIs(t, err, ErrPropertyNotFound)
	})
}

func TestQuery_MissingMappedColumnWarnsOncePerQuery(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	factory := NewQueryFactory(writeCompanies(t)).WithLogger(logger)
	require.NoError(t, AddMapping[Company](factory, "CEO", "Boss"))

	companies, err := Worksheet[Company](factory, "Companies").ToSlice(t.Context())
	require.NoError(t, err)
	require.Len(t, companies, len(companyRows))
	for _, c := range companies {
		assert.Empty(t, c.CEO)
		assert.NotEmpty(t, c.Name)
	}

	warnings := logger.warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "'Boss' column that is mapped to the 'CEO' property does not exist in the 'Companies' worksheet", warnings[0].msg)
	assert.Equal(t, "Companies", warnings[0].fields["worksheet"])
	assert.Equal(t, "CEO", warnings[0].fields["property"])
	assert.Equal(t, "Boss", warnings[0].fields["column"])

	_, err = Worksheet[Company](factory, "Companies").ToSlice(t.Context())
	require.NoError(t, err)
	assert.Len(t, logger.warnings(), 2, "a second query warns again")
}

func TestQuery_StrictMapping(t *testing.T) {
	t.Parallel()

	path := writeCompanies(t)

	t.Run("class strict fails before reading rows", func(t *testing.T) {
		t.Parallel()

		factory := NewQueryFactory(path).WithStrictMapping(model.StrictMappingClass)
		n := 0
		var err error
		for _, rowErr := range Worksheet[Company](factory, "ColumnMappings").All(t.Context()) {
			n++
			err = rowErr
		}
		assert.Equal(t, 1, n, "only the error is yielded")
		require.ErrorIs(t, err, ErrStrictMapping)
	})

	t.Run("worksheet strict with unused column", func(t *testing.T) {
		t.Parallel()

		type nameOnly struct{ Name string }
		factory := NewQueryFactory(path).WithStrictMapping(model.StrictMappingWorksheet)
		_, err := Worksheet[nameOnly](factory, "Companies").ToSlice(t.Context())
		require.ErrorIs(t, err, ErrStrictMapping)
		assert.Contains(t, err.Error(), "CEO")
	})

	t.Run("both with exact match", func(t *testing.T) {
		t.Parallel()

		factory := NewQueryFactory(path).WithStrictMapping(model.StrictMappingBoth)
		n, err := Worksheet[Company](factory, "Companies").Count(t.Context())
		require.NoError(t, err)
		assert.Equal(t, len(companyRows), n)
	})
}

func TestQuery_Transformations(t *testing.T) {
	t.Parallel()

	factory := NewQueryFactory(writeCompanies(t))
	require.NoError(t, AddTransformation[Company](factory, "Name", func(raw string) (any, error) {
		return strings.ToLower(raw), nil
	}))
	AddTypeTransformation(factory, func(raw string) (bool, error) {
		return raw == "FALSE", nil
	})

	first, err := Worksheet[Company](factory, "Companies").First(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "acme", first.Name)
	assert.False(t, first.IsActive, "type transform inverts the flag")

	require.ErrorIs(t, AddTransformation[Company](factory, "Missing", nil), ErrPropertyNotFound)
}

func TestQuery_MappingWithTransformation(t *testing.T) {
	t.Parallel()

	factory := NewQueryFactory(writeCompanies(t))
	require.NoError(t, AddMappingWithTransformation[Company](factory, "IsActive", "Active", func(raw string) (bool, error) {
		return raw == "FALSE", nil
	}))
	require.NoError(t, AddMappingWithTransformation[Company](factory, "EmployeeCount", "Employees", func(raw string) (int64, error) {
		return int64(len(raw)), nil
	}))

	companies, err := Worksheet[Company](factory, "ColumnMappings").ToSlice(t.Context())
	require.NoError(t, err)
	require.Len(t, companies, len(companyRows))
	for i, c := range companies {
		assert.Equal(t, !companyRows[i][4].(bool), c.IsActive, c.Name)
	}
	assert.Equal(t, 3, companies[3].EmployeeCount, "145 has three characters")

	args, err := Worksheet[Company](factory, "ColumnMappings").Args()
	require.NoError(t, err)
	assert.Equal(t, 2, args.ColumnMappings.Len())

	err = AddMappingWithTransformation[Company](factory, "Missing", "Active", func(raw string) (string, error) { return raw, nil })
	require.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestQuery_Range(t *testing.T) {
	t.Parallel()

	factory := NewQueryFactory(writeCompanies(t))

	t.Run("header is the first row of the range", func(t *testing.T) {
		t.Parallel()

		companies, err := Worksheet[Company](factory, "Companies").Range("A1", "C4").ToSlice(t.Context())
		require.NoError(t, err)
		require.Len(t, companies, 3)
		assert.Equal(t, "Anderson Electric", companies[2].Name)
		assert.Equal(t, 68, companies[2].EmployeeCount)
		assert.True(t, companies[2].StartDate.IsZero(), "columns outside the range are not read")
	})

	t.Run("open ended range", func(t *testing.T) {
		t.Parallel()

		n, err := Worksheet[Company](factory, "Companies").Range("A1", "").Count(t.Context())
		require.NoError(t, err)
		assert.Equal(t, len(companyRows), n)
	})

	t.Run("invalid range", func(t *testing.T) {
		t.Parallel()

		_, err := Worksheet[Company](factory, "Companies").Range("C4", "A1").ToSlice(t.Context())
		require.ErrorIs(t, err, model.ErrInvalidRange)
	})
}

func TestQuery_NoHeader(t *testing.T) {
	t.Parallel()

	type lettered struct {
		A string
		C int
	}

	factory := NewQueryFactory(writeCompanies(t))
	rows, err := Worksheet[lettered](factory, "Companies").NoHeader().Range("A2", "C3").ToSlice(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []lettered{{A: "ACME", C: 25}, {A: "Word Made Flesh", C: 16}}, rows)
}

func TestQuery_Rows(t *testing.T) {
	t.Parallel()

	factory := NewQueryFactory(writeCompanies(t))
	rows, err := Worksheet[Row](factory, "Companies").Where("Name", "=", "KarlNet").ToSlice(t.Context())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, []string{"Name", "CEO", "EmployeeCount", "StartDate", "IsActive"}, row.Columns())
	assert.Equal(t, 5, row.Len())
	assert.Equal(t, "Paul Karlsberg", row.Get("ceo").String())
	assert.True(t, row.Has("EMPLOYEECOUNT"))
	assert.False(t, row.Has("Revenue"))
	assert.True(t, row.Get("Revenue").IsEmpty())

	n, err := row.Get("EmployeeCount").Int()
	require.NoError(t, err)
	assert.Equal(t, int64(145), n)
	assert.Equal(t, "KarlNet", row.At(0).String())
	assert.Equal(t, "TRUE", row.Values()[4])

	ptrRows, err := Worksheet[*Row](factory, "Companies").Range("A1", "B2").ToSlice(t.Context())
	require.NoError(t, err)
	require.Len(t, ptrRows, 1)
	assert.Equal(t, []string{"ACME", "Bugs Bunny"}, ptrRows[0].Values())
}

func TestQuery_Enumeration(t *testing.T) {
	t.Parallel()

	factory := NewQueryFactory(writeCompanies(t))
	query := Worksheet[Company](factory, "Companies")

	t.Run("ranging again reads again", func(t *testing.T) {
		t.Parallel()

		for range 2 {
			n, err := query.Count(t.Context())
			require.NoError(t, err)
			assert.Equal(t, len(companyRows), n)
		}
	})

	t.Run("early stop", func(t *testing.T) {
		t.Parallel()

		var names []string
		for c, err := range query.All(t.Context()) {
			require.NoError(t, err)
			names = append(names, c.Name)
			if len(names) == 2 {
				break
			}
		}
		assert.Equal(t, []string{"ACME", "Word Made Flesh"}, names)
	})

	t.Run("no rows", func(t *testing.T) {
		t.Parallel()

		_, err := Worksheet[Company](factory, "Companies").Where("Name", "=", "nobody").First(t.Context())
		require.ErrorIs(t, err, ErrNoRows)
	})
}

func TestQuery_Args(t *testing.T) {
	t.Parallel()

	factory := NewQueryFactory("Companies.xlsx").WithStrictMapping(model.StrictMappingWorksheet)
	require.NoError(t, AddMapping[Company](factory, "CEO", "Boss"))

	args, err := Worksheet[Company](factory, "ColumnMappings").Range("A1", "C10").NoHeader().Args()
	require.NoError(t, err)
	assert.Equal(t, "Companies.xlsx", args.FileName)
	assert.Equal(t, DefaultEngine, args.Engine)
	assert.Equal(t, "ColumnMappings", args.WorksheetName)
	assert.Nil(t, args.WorksheetIndex)
	assert.True(t, args.NoHeader)
	assert.Equal(t, model.StrictMappingWorksheet, args.StrictMapping)
	assert.Contains(t, args.String(), "ColumnMappings: [Company.CEO = 'Boss']")

	other, err := WorksheetAt[Company](factory, 1).Args()
	require.NoError(t, err)
	assert.Empty(t, other.StartRange, "range is never shared between queries")
	assert.False(t, other.NoHeader)
	assert.Same(t, args.ColumnMappings, other.ColumnMappings, "stores are shared")
}

func TestQuery_CSVSource(t *testing.T) {
	t.Parallel()

	path := writeText(t, "people.csv", "Name,GroupId,Age\nAnn,1,30\nBob,2,41\n")

	people, err := Worksheet[Person](NewQueryFactory(path), "people").Where("Age", ">", 35).ToSlice(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []Person{{Name: "Bob", GroupID: 2, Age: 41}}, people)
}
