// Package driver provides the sheetquery database/sql driver.
//
// The driver loads every worksheet of a source into an in-memory SQLite
// database. A source is a single file or a directory of files:
//   - Excel workbooks (.xlsx), one worksheet per sheet
//   - CSV, TSV, LTSV and Parquet files, one worksheet per file
//   - gzip, bzip2, xz and zstd compressed versions of the above
//
// Worksheets are stored positionally so that header handling and cell ranges
// can be decided per query. Each worksheet becomes a table named by
// TableName with TEXT columns named by ColumnName, and the rowid of every
// row is its row number in the sheet. The CatalogTable lists the worksheets
// in source order.
//
// Usage:
//
//	import _ "github.com/nao1215/sheetquery"
//	db, err := sql.Open("sheetquery", "Companies.xlsx")
package driver

import (
	"context"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/sheetquery/domain/model"
	"modernc.org/sqlite"
)

// CatalogTable is the table listing the loaded worksheets.
// Columns: position INTEGER, name TEXT, table_name TEXT, width INTEGER.
const CatalogTable = "sheetquery_worksheets"

// TableName returns the table holding the worksheet at position.
func TableName(position int) string {
	return "ws_" + strconv.Itoa(position)
}

// ColumnName returns the table column holding the 1-based worksheet column.
func ColumnName(column int) string {
	return "c" + strconv.Itoa(column)
}

// Driver implements database/sql/driver.Driver interface for spreadsheet sources.
type Driver struct{}

// Connector implements database/sql/driver.Connector interface.
// The dsn is the path of a file or directory.
type Connector struct {
	driver *Driver
	dsn    string
}

// Connection implements database/sql/driver.Conn interface.
// It wraps an underlying SQLite connection that contains loaded worksheets.
type Connection struct {
	conn driver.Conn
}

// NewDriver creates a new driver
func NewDriver() *Driver {
	return &Driver{}
}

// Open implements driver.Driver interface
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	connector, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

// OpenConnector implements driver.DriverContext interface
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrNoPathsProvided
	}
	return &Connector{
		driver: d,
		dsn:    dsn,
	}, nil
}

// Connect implements driver.Connector interface
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	sheets, err := readSource(c.dsn)
	if err != nil {
		return nil, err
	}

	sqliteDriver := &sqlite.Driver{}
	conn, err := sqliteDriver.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}

	if err := loadWorksheets(ctx, conn, sheets); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to load %s: %w", c.dsn, err)
	}

	return &Connection{conn: conn}, nil
}

// Driver implements driver.Connector interface
func (c *Connector) Driver() driver.Driver {
	return c.driver
}

// readSource reads the worksheets of a file or of every supported file in a directory.
func readSource(path string) ([]model.Worksheet, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		if files, err = collectDirectoryFiles(path); err != nil {
			return nil, err
		}
	}

	var sheets []model.Worksheet
	seen := make(map[string]string)
	for _, file := range files {
		loaded, err := model.NewFile(file).Worksheets()
		if err != nil {
			return nil, err
		}
		for _, sheet := range loaded {
			key := model.NormalizeColumnName(sheet.Name)
			if existing, ok := seen[key]; ok {
				return nil, fmt.Errorf("%w: '%s' from files '%s' and '%s'",
					ErrDuplicateWorksheet, sheet.Name, existing, file)
			}
			seen[key] = file
			sheets = append(sheets, sheet)
		}
	}

	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrEmptyWorkbook, path)
	}
	return sheets, nil
}

// collectDirectoryFiles returns the supported files of dirPath in name order.
// When the same file exists with different compression, the least compressed
// copy is used.
func collectDirectoryFiles(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	chosen := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !IsValidFileName(name) || !model.IsSupportedFile(name) {
			continue
		}
		compression, base := model.DetectCompression(name)
		if existing, ok := chosen[base]; ok {
			if existingCompression, _ := model.DetectCompression(existing); existingCompression == model.CompressionNone ||
				compression != model.CompressionNone {
				continue
			}
		}
		chosen[base] = name
	}

	if len(chosen) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFilesLoaded, dirPath)
	}
	if err := ValidateFileCount(len(chosen)); err != nil {
		return nil, err
	}

	files := make([]string, 0, len(chosen))
	for _, name := range chosen {
		files = append(files, filepath.Join(dirPath, name))
	}
	slices.Sort(files)
	return files, nil
}

func loadWorksheets(ctx context.Context, conn driver.Conn, sheets []model.Worksheet) error {
	catalog := fmt.Sprintf(
		`CREATE TABLE [%s] (position INTEGER PRIMARY KEY, name TEXT NOT NULL, table_name TEXT NOT NULL, width INTEGER NOT NULL)`,
		CatalogTable,
	)
	if err := execute(ctx, conn, catalog); err != nil {
		return fmt.Errorf("failed to create catalog: %w", err)
	}

	for position, sheet := range sheets {
		if err := loadWorksheet(ctx, conn, position, sheet); err != nil {
			return fmt.Errorf("worksheet %s: %w", sheet.Name, err)
		}
	}
	return nil
}

func loadWorksheet(ctx context.Context, conn driver.Conn, position int, sheet model.Worksheet) error {
	width := max(sheet.Width(), 1)
	if err := ValidateColumnCount(width); err != nil {
		return err
	}

	table := TableName(position)
	columns := make([]string, width)
	for i := range width {
		columns[i] = ColumnName(i+1) + " TEXT"
	}
	if err := execute(ctx, conn, fmt.Sprintf(`CREATE TABLE [%s] (%s)`, table, strings.Join(columns, ", "))); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if err := execute(ctx, conn,
		fmt.Sprintf(`INSERT INTO [%s] (position, name, table_name, width) VALUES (?, ?, ?, ?)`, CatalogTable),
		int64(position), sheet.Name, table, int64(width),
	); err != nil {
		return fmt.Errorf("failed to register worksheet: %w", err)
	}

	return insertRows(ctx, conn, table, width, sheet.Rows)
}

// insertRows stores every non-blank row with its sheet row number as rowid.
func insertRows(ctx context.Context, conn driver.Conn, table string, width int, rows []model.Record) error {
	columns := make([]string, width)
	for i := range width {
		columns[i] = ColumnName(i + 1)
	}
	query := fmt.Sprintf(`INSERT INTO [%s] (rowid, %s) VALUES (?%s)`,
		table, strings.Join(columns, ", "), strings.Repeat(", ?", width))
	stmt, err := prepare(ctx, conn, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	execer, ok := stmt.(driver.StmtExecContext)
	if !ok {
		return ErrStmtExecContextNotSupported
	}

	args := make([]driver.NamedValue, width+1)
	for i, row := range rows {
		if row.IsBlank() {
			continue
		}
		args[0] = driver.NamedValue{Ordinal: 1, Value: int64(i + 1)}
		for j := range width {
			var value driver.Value
			if j < len(row) {
				value = ValidateFieldValue(row[j])
			}
			args[j+1] = driver.NamedValue{Ordinal: j + 2, Value: value}
		}
		if _, err := execer.ExecContext(ctx, args); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i+1, err)
		}
	}
	return nil
}

func prepare(ctx context.Context, conn driver.Conn, query string) (driver.Stmt, error) {
	if preparer, ok := conn.(driver.ConnPrepareContext); ok {
		return preparer.PrepareContext(ctx, query)
	}
	return conn.Prepare(query)
}

func execute(ctx context.Context, conn driver.Conn, query string, args ...any) error {
	stmt, err := prepare(ctx, conn, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	execer, ok := stmt.(driver.StmtExecContext)
	if !ok {
		return ErrStmtExecContextNotSupported
	}

	named := make([]driver.NamedValue, len(args))
	for i, arg := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: arg}
	}
	_, err = execer.ExecContext(ctx, named)
	return err
}

// Close implements driver.Conn interface
func (conn *Connection) Close() error {
	if conn.conn != nil {
		return conn.conn.Close()
	}
	return nil
}

// Begin implements driver.Conn interface. Sources are read-only.
func (conn *Connection) Begin() (driver.Tx, error) {
	return nil, ErrTransactionsNotSupported
}

// Prepare implements driver.Conn interface (deprecated, use PrepareContext instead)
func (conn *Connection) Prepare(query string) (driver.Stmt, error) {
	return conn.PrepareContext(context.Background(), query)
}

// PrepareContext implements driver.ConnPrepareContext interface
func (conn *Connection) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if connPrepareCtx, ok := conn.conn.(driver.ConnPrepareContext); ok {
		return connPrepareCtx.PrepareContext(ctx, query)
	}
	return nil, ErrPrepareContextNotSupported
}
