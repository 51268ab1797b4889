package sheetquery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"reflect"
	"strings"
	"sync"

	"github.com/nao1215/sheetquery/domain/model"
	sheetdriver "github.com/nao1215/sheetquery/driver"
)

// DefaultEngine is the engine used when none is selected.
const DefaultEngine = "sqlite"

// Engine opens spreadsheet sources.
type Engine interface {
	OpenSource(ctx context.Context, file string) (Session, error)
}

// Session reads worksheets of one opened source.
//
// ExecuteQuery returns a lazy sequence: rows are read while the caller ranges
// over it, and ranging over it again runs the query again.
type Session interface {
	ListWorksheets(ctx context.Context) ([]string, error)
	ResolveWorksheet(ctx context.Context, sel model.WorksheetSelector) (string, error)
	HeaderRow(ctx context.Context, q model.SheetQuery) ([]string, error)
	ExecuteQuery(ctx context.Context, q model.SheetQuery) iter.Seq2[model.RawRow, error]
	Close() error
}

var (
	enginesMu sync.RWMutex
	engines   = make(map[string]Engine)
)

// RegisterEngine makes an engine available by name.
// Registering a name twice replaces the previous engine.
func RegisterEngine(name string, engine Engine) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	engines[strings.ToLower(name)] = engine
}

func lookupEngine(name string) (Engine, error) {
	if name == "" {
		name = DefaultEngine
	}
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	engine, ok := engines[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, name)
	}
	return engine, nil
}

// sqlEngine reads sources through the sheetquery database/sql driver.
type sqlEngine struct{}

type worksheetInfo struct {
	position int
	name     string
	table    string
	width    int
}

type sqlSession struct {
	db         *sql.DB
	conn       *sql.Conn
	worksheets []worksheetInfo
}

// OpenSource loads file into a private in-memory database.
func (e *sqlEngine) OpenSource(ctx context.Context, file string) (Session, error) {
	if strings.TrimSpace(file) == "" {
		return nil, ErrNoFile
	}

	db, err := sql.Open(DriverName, file)
	if err != nil {
		return nil, err
	}
	// Every pooled connection would load its own copy of the source.
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, NewErrorContext("open", file).Error(err)
	}

	s := &sqlSession{db: db, conn: conn}
	if err := s.loadCatalog(ctx); err != nil {
		_ = s.Close()
		return nil, NewErrorContext("open", file).Error(err)
	}
	return s, nil
}

func (s *sqlSession) loadCatalog(ctx context.Context) error {
	rows, err := s.conn.QueryContext(ctx, fmt.Sprintf(
		"SELECT position, name, table_name, width FROM [%s] ORDER BY position", sheetdriver.CatalogTable))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var info worksheetInfo
		if err := rows.Scan(&info.position, &info.name, &info.table, &info.width); err != nil {
			return err
		}
		s.worksheets = append(s.worksheets, info)
	}
	return rows.Err()
}

// ListWorksheets returns the worksheet names in source order.
func (s *sqlSession) ListWorksheets(_ context.Context) ([]string, error) {
	names := make([]string, len(s.worksheets))
	for i, info := range s.worksheets {
		names[i] = info.name
	}
	return names, nil
}

// ResolveWorksheet returns the name of the selected worksheet.
func (s *sqlSession) ResolveWorksheet(_ context.Context, sel model.WorksheetSelector) (string, error) {
	info, err := s.lookup(sel)
	if err != nil {
		return "", err
	}
	return info.name, nil
}

func (s *sqlSession) lookup(sel model.WorksheetSelector) (worksheetInfo, error) {
	if name, ok := sel.Name(); ok {
		key := model.NormalizeColumnName(name)
		for _, info := range s.worksheets {
			if model.NormalizeColumnName(info.name) == key {
				return info, nil
			}
		}
		names, _ := s.ListWorksheets(context.Background())
		return worksheetInfo{}, fmt.Errorf("%w: '%s' (available: %s)",
			model.ErrWorksheetNotFound, name, strings.Join(names, ", "))
	}

	index, _ := sel.Index()
	if index < 0 || index >= len(s.worksheets) {
		return worksheetInfo{}, fmt.Errorf("%w: index %d of %d worksheets",
			model.ErrWorksheetNotFound, index, len(s.worksheets))
	}
	return s.worksheets[index], nil
}

// HeaderRow returns the column names of the queried area. Without a header
// row columns are named by letter.
func (s *sqlSession) HeaderRow(ctx context.Context, q model.SheetQuery) ([]string, error) {
	info, err := s.lookup(q.Worksheet)
	if err != nil {
		return nil, err
	}
	return s.header(ctx, info, q)
}

func (s *sqlSession) header(ctx context.Context, info worksheetInfo, q model.SheetQuery) ([]string, error) {
	first, last := q.Range.Columns(info.width)
	if last < first {
		return []string{}, nil
	}

	header := make([]string, 0, last-first+1)
	if q.NoHeader {
		for column := first; column <= last; column++ {
			header = append(header, model.ColumnLetter(column))
		}
		return header, nil
	}

	query := fmt.Sprintf("SELECT %s FROM [%s] WHERE rowid = ?", columnList(first, last), info.table)
	values := make([]sql.NullString, last-first+1)
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}
	err := s.conn.QueryRowContext(ctx, query, q.Range.HeaderRow()).Scan(dest...)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read header of %s: %w", info.name, err)
	}
	for _, v := range values {
		header = append(header, strings.TrimSpace(v.String))
	}

	if err := model.NewHeader(header).Validate(); err != nil {
		return nil, fmt.Errorf("worksheet %s: %w", info.name, err)
	}
	return header, nil
}

// ExecuteQuery streams the rows below the header that satisfy every condition.
func (s *sqlSession) ExecuteQuery(ctx context.Context, q model.SheetQuery) iter.Seq2[model.RawRow, error] {
	return func(yield func(model.RawRow, error) bool) {
		info, err := s.lookup(q.Worksheet)
		if err != nil {
			yield(nil, err)
			return
		}
		header, err := s.header(ctx, info, q)
		if err != nil {
			yield(nil, err)
			return
		}
		if len(header) == 0 {
			return
		}

		first, last := q.Range.Columns(info.width)
		query, args, err := buildSelect(info, header, first, last, q)
		if err != nil {
			yield(nil, err)
			return
		}

		rows, err := s.conn.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("failed to query %s: %w", info.name, err))
			return
		}
		defer rows.Close()

		values := make([]sql.NullString, len(header))
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		for rows.Next() {
			if err := rows.Scan(dest...); err != nil {
				yield(nil, err)
				return
			}
			raw := make(model.RawRow, len(header))
			for i, name := range header {
				if name != "" {
					raw[name] = values[i].String
				}
			}
			if !yield(raw, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Close releases the in-memory database.
func (s *sqlSession) Close() error {
	var err error
	if s.conn != nil {
		err = s.conn.Close()
	}
	if closeErr := s.db.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func columnList(first, last int) string {
	columns := make([]string, 0, last-first+1)
	for column := first; column <= last; column++ {
		columns = append(columns, sheetdriver.ColumnName(column))
	}
	return strings.Join(columns, ", ")
}

// buildSelect translates the range and conditions into a parameterized query.
func buildSelect(info worksheetInfo, header []string, first, last int, q model.SheetQuery) (string, []any, error) {
	var (
		where []string
		args  []any
	)
	if q.NoHeader {
		where = append(where, "rowid >= ?")
		args = append(args, max(q.Range.FirstRow, 1))
	} else {
		where = append(where, "rowid > ?")
		args = append(args, q.Range.HeaderRow())
	}
	if q.Range.LastRow != 0 {
		where = append(where, "rowid <= ?")
		args = append(args, q.Range.LastRow)
	}

	h := model.NewHeader(header)
	for _, cond := range q.Conditions {
		index := h.Index(cond.Column)
		if index < 0 {
			return "", nil, fmt.Errorf("%w: '%s' in worksheet %s", model.ErrColumnNotFound, cond.Column, info.name)
		}
		clause, arg, err := conditionClause(sheetdriver.ColumnName(first+index), cond)
		if err != nil {
			return "", nil, err
		}
		where = append(where, clause)
		args = append(args, arg)
	}

	query := fmt.Sprintf("SELECT %s FROM [%s] WHERE %s ORDER BY rowid",
		columnList(first, last), info.table, strings.Join(where, " AND "))
	return query, args, nil
}

func conditionClause(column string, cond model.Condition) (string, any, error) {
	switch cond.Operator {
	case model.OpLike:
		return fmt.Sprintf("COALESCE(%s, '') LIKE ?", column), fmt.Sprint(cond.Value), nil
	case model.OpContains:
		return fmt.Sprintf("COALESCE(%s, '') LIKE '%%' || ? || '%%'", column), fmt.Sprint(cond.Value), nil
	case model.OpEqual, model.OpNotEqual, model.OpLess, model.OpLessEqual, model.OpGreater, model.OpGreaterEqual:
	default:
		return "", nil, fmt.Errorf("%w: %q", model.ErrUnsupportedOperator, cond.Operator)
	}

	if number, ok := numericValue(cond.Value); ok {
		return fmt.Sprintf("(%s IS NOT NULL AND TRIM(%s) <> '' AND CAST(%s AS REAL) %s ?)",
			column, column, column, cond.Operator), number, nil
	}
	return fmt.Sprintf("COALESCE(%s, '') %s ?", column, cond.Operator), fmt.Sprint(cond.Value), nil
}

func numericValue(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
