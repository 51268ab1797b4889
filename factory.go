package sheetquery

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/nao1215/sheetquery/config"
	"github.com/nao1215/sheetquery/domain/model"
	"github.com/nao1215/sheetquery/log"
)

// QueryFactory holds the configuration shared by every query of one source.
// Use NewQueryFactory to create a new instance, register mappings and
// transforms with AddMapping, AddTransformation, AddTypeTransformation and
// AddForeignKey, then start queries with Worksheet or WorksheetAt.
//
// The typical usage pattern is:
//
//	factory := sheetquery.NewQueryFactory("Companies.xlsx")
//	if err := sheetquery.AddMapping[Company](factory, "CEO", "Boss"); err != nil {
//		return err
//	}
//	companies, err := sheetquery.Worksheet[Company](factory, "Companies").
//		Where("EmployeeCount", ">", 100).
//		ToSlice(ctx)
//
// Registrations must be complete before queries run. A factory is not safe
// for registering while queries of it are being read.
type QueryFactory struct {
	// file is the spreadsheet file or directory
	file string
	// engine is the name of the engine opening file
	engine string
	// mappings, transforms, typeTransforms and foreignKeys are shared by every query
	mappings       *model.ColumnMappings
	transforms     *model.PropertyTransforms
	typeTransforms *model.TypeTransforms
	foreignKeys    *model.ForeignKeys
	// strict is the strict mapping mode of every query
	strict model.StrictMapping
	logger log.Logger
}

// NewQueryFactory creates a factory for the spreadsheet at file.
// The file can be:
//   - An Excel workbook (.xlsx), each sheet is a worksheet
//   - A CSV, TSV, LTSV or Parquet file, the file is a single worksheet
//   - A directory, each supported file is a worksheet
//
// Compressed files (.gz, .bz2, .xz, .zst) are read transparently.
func NewQueryFactory(file string) *QueryFactory {
	return &QueryFactory{
		file:           file,
		engine:         DefaultEngine,
		mappings:       model.NewColumnMappings(),
		transforms:     model.NewPropertyTransforms(),
		typeTransforms: model.NewTypeTransforms(),
		foreignKeys:    model.NewForeignKeys(),
		strict:         model.StrictMappingNone,
		logger:         log.NewNoopLogger(),
	}
}

// WithLogger sets the logger receiving diagnostics such as missing mapped
// columns. A nil logger discards them.
func (f *QueryFactory) WithLogger(logger log.Logger) *QueryFactory {
	f.logger = log.NewLogger(logger).WithFields(log.Fields{log.ModuleField: "sheetquery"})
	return f
}

// WithEngine selects an engine registered with RegisterEngine.
func (f *QueryFactory) WithEngine(name string) *QueryFactory {
	f.engine = name
	return f
}

// WithStrictMapping sets how properties and columns must match.
func (f *QueryFactory) WithStrictMapping(strict model.StrictMapping) *QueryFactory {
	f.strict = strict
	return f
}

// File returns the source the factory queries.
func (f *QueryFactory) File() string {
	return f.file
}

// ApplyConfig applies the source, engine, strict mapping mode and column
// mappings of cfg. Mappings name their struct type, which must be one of
// the types of the given sample values.
//
//	err := factory.ApplyConfig(cfg, Company{}, Person{})
func (f *QueryFactory) ApplyConfig(cfg *config.Config, types ...any) error {
	if cfg == nil {
		return nil
	}
	if cfg.File != "" {
		f.file = cfg.File
	}
	if cfg.Engine != "" {
		f.engine = cfg.Engine
	}
	strict, err := cfg.Strict()
	if err != nil {
		return err
	}
	f.strict = strict

	known := make(map[string]reflect.Type, len(types))
	for _, v := range types {
		t, err := structType(reflect.TypeOf(v))
		if err != nil {
			return err
		}
		known[strings.ToLower(model.TypeName(t))] = t
	}

	for _, m := range cfg.Mappings {
		t, ok := known[strings.ToLower(strings.TrimSpace(m.Type))]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownType, m.Type)
		}
		fields := targetFields(t)
		for property, column := range m.Columns {
			if !hasField(fields, property) {
				return fmt.Errorf("%w: %s.%s", ErrPropertyNotFound, model.TypeName(t), property)
			}
			f.mappings.Add(t, property, column)
		}
	}
	return nil
}

func hasField(fields []targetField, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// baseline returns the long-lived arguments every query starts from.
func (f *QueryFactory) baseline() model.ConstructorArgs {
	strict := f.strict
	return model.ConstructorArgs{
		FileName:            f.file,
		Engine:              f.engine,
		ColumnMappings:      f.mappings,
		Transformations:     f.transforms,
		TypeTransformations: f.typeTransforms,
		ForeignKeys:         f.foreignKeys,
		StrictMapping:       &strict,
	}
}

// open opens the source with the selected engine.
func (f *QueryFactory) open(ctx context.Context, args *model.QueryArgs) (Session, error) {
	if strings.TrimSpace(args.FileName) == "" {
		return nil, ErrNoFile
	}
	engine, err := lookupEngine(args.Engine)
	if err != nil {
		return nil, err
	}
	session, err := engine.OpenSource(ctx, args.FileName)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// WorksheetNames returns the worksheet names of the source in order.
func (f *QueryFactory) WorksheetNames(ctx context.Context) ([]string, error) {
	session, err := f.open(ctx, model.NewQueryArgs(f.baseline()))
	if err != nil {
		return nil, err
	}
	defer session.Close()
	return session.ListWorksheets(ctx)
}

// ColumnNames returns the header of worksheet.
func (f *QueryFactory) ColumnNames(ctx context.Context, worksheet string) ([]string, error) {
	session, err := f.open(ctx, model.NewQueryArgs(f.baseline()))
	if err != nil {
		return nil, err
	}
	defer session.Close()
	return session.HeaderRow(ctx, model.SheetQuery{Worksheet: model.WorksheetByName(worksheet)})
}
