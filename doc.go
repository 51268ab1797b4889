// Package sheetquery queries spreadsheet files and maps their rows to Go values.
//
// A worksheet is queried with a target struct type. Every exported field of
// the struct is a property that takes its value from the worksheet column of
// the same name, compared case-insensitively. Columns with other names are
// mapped with the sheet struct tag or with AddMapping, and raw cell values are
// converted with registered transforms or the default conversion rules.
//
// # Features
//
//   - Query Excel (XLSX), CSV, TSV, LTSV and Parquet files and directories of them
//   - Automatic handling of compressed files (gzip, bzip2, xz, zstandard)
//   - Filters translated to SQL and evaluated by an in-memory SQLite database
//   - Per property and per type value transforms
//   - Relations between worksheets populated with one query per related worksheet
//   - Cell ranges and worksheets without a header row
//   - Strict mapping modes that reject unmatched properties or columns
//
// # Basic Usage
//
//	type Company struct {
//		Name          string
//		CEO           string `sheet:"Boss"`
//		EmployeeCount int
//		StartDate     time.Time
//	}
//
//	factory := sheetquery.NewQueryFactory("Companies.xlsx")
//	for company, err := range sheetquery.Worksheet[Company](factory, "Companies").
//		Where("EmployeeCount", ">=", 100).
//		All(ctx) {
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(company.Name, company.CEO)
//	}
//
// # Transforms
//
// The value of a property is decided in this order:
//  1. A foreign key registered with AddForeignKey populates the property from another worksheet
//  2. A transform registered with AddTransformation or AddMappingWithTransformation converts the raw value
//  3. A transform registered with AddTypeTransformation for the property type converts the raw value
//  4. The raw value is converted to the property type
//
// A transform may return nil, which leaves the property at its zero value.
//
// # Relations
//
//	err := sheetquery.AddForeignKey(factory, "Members",
//		func(g Group, people []Person) []Person {
//			return slices.DeleteFunc(people, func(p Person) bool { return p.GroupID != g.ID })
//		}, "People")
//
// The related worksheet is read once per query and every parent receives the
// rows its relation function selects.
//
// # Missing Columns
//
// A property whose column is not in the worksheet keeps its zero value. When
// the column was named with a mapping or a tag, a warning is sent to the
// logger set with WithLogger:
//
//	'Boss' column that is mapped to the 'CEO' property does not exist in the 'Companies' worksheet
//
// Strict mapping modes turn unmatched properties or columns into ErrStrictMapping
// before any row is read.
package sheetquery
