package sheetquery

import (
	"context"
	"database/sql"
	"fmt"

	sheetdriver "github.com/nao1215/sheetquery/driver"
)

const (
	// DriverName is the name for the sheetquery driver
	DriverName = "sheetquery"
)

// Register registers the sheetquery driver with database/sql
func Register() {
	sql.Register(DriverName, sheetdriver.NewDriver())
}

func init() {
	// Auto-register the driver on import
	Register()
	RegisterEngine(DefaultEngine, &sqlEngine{})
}

// Open opens the positional database of a spreadsheet source.
//
// Every worksheet of the source is loaded into an in-memory SQLite database.
// The catalog table driver.CatalogTable lists the worksheets, and each
// worksheet is stored in a table whose columns are named c1, c2, ... and
// whose rowid is the row number in the sheet. Most callers should use
// NewQueryFactory instead, which maps rows to Go values.
//
// Example usage:
//
//	db, err := sheetquery.Open("Companies.xlsx")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	rows, err := db.Query("SELECT name, width FROM sheetquery_worksheets ORDER BY position")
func Open(path string) (*sql.DB, error) {
	return OpenContext(context.Background(), path)
}

// OpenContext is like Open but verifies the source with ctx.
func OpenContext(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return db, nil
}
