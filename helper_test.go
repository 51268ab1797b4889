package sheetquery

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nao1215/sheetquery/log"
)

type Company struct {
	Name          string
	CEO           string
	EmployeeCount int
	StartDate     time.Time
	IsActive      bool
}

type TaggedCompany struct {
	Name          string    `sheet:"Company Title"`
	CEO           string    `sheet:"Boss"`
	EmployeeCount int       `sheet:"Employees"`
	StartDate     time.Time `sheet:"Start Date"`
	Ignored       string    `sheet:"-"`
}

type Group struct {
	ID      int `sheet:"Id"`
	Name    string
	Members []Person
}

type Person struct {
	Name    string
	GroupID int `sheet:"GroupId"`
	Age     int
}

type logEntry struct {
	level  string
	err    error
	msg    string
	fields log.Fields
}

// recordingLogger keeps every entry for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level string, err error, msg string, fields []log.Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	merged := log.Fields{}
	for _, f := range fields {
		merged = log.MergeFields(merged, f)
	}
	l.entries = append(l.entries, logEntry{level: level, err: err, msg: msg, fields: merged})
}

func (l *recordingLogger) Trace(msg string, fields ...log.Fields) { l.add("trace", nil, msg, fields) }
func (l *recordingLogger) Debug(msg string, fields ...log.Fields) { l.add("debug", nil, msg, fields) }
func (l *recordingLogger) Info(msg string, fields ...log.Fields)  { l.add("info", nil, msg, fields) }
func (l *recordingLogger) Warn(err error, msg string, fields ...log.Fields) {
	l.add("warn", err, msg, fields)
}
func (l *recordingLogger) Error(err error, msg string, fields ...log.Fields) {
	l.add("error", err, msg, fields)
}
func (l *recordingLogger) WithFields(_ log.Fields) log.Logger { return l }

func (l *recordingLogger) warnings() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var warnings []logEntry
	for _, e := range l.entries {
		if e.level == "warn" {
			warnings = append(warnings, e)
		}
	}
	return warnings
}

func addSheet(t *testing.T, book *excelize.File, name string, rows [][]any) {
	t.Helper()

	if book.SheetCount == 1 && book.GetSheetName(0) == "Sheet1" && name != "Sheet1" {
		require.NoError(t, book.SetSheetName("Sheet1", name))
	} else {
		_, err := book.NewSheet(name)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, book.SetSheetRow(name, cell, &row))
	}
}

func writeText(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func saveBook(t *testing.T, book *excelize.File, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, book.SaveAs(path))
	require.NoError(t, book.Close())
	return path
}

var companyRows = [][]any{
	{"ACME", "Bugs Bunny", 25, "2008-10-01", true},
	{"Word Made Flesh", "Chris Hughes", 16, "2009-05-07", true},
	{"Anderson Electric", "Jeff Anderson", 68, "2006-02-05", false},
	{"KarlNet", "Paul Karlsberg", 145, "1999-12-12", true},
	{"Jacob & Jacobs", "Jacob Smith", 2, "2010-01-19", false},
	{"Smith Smitherson", "Kieth Hall", 1337, "1990-03-12", true},
	{"IDONTKNOW", "Ty Ty", 255, "2001-09-30", false},
}

// writeCompanies creates a workbook with a "Companies" sheet whose headers
// match the Company properties and a "ColumnMappings" sheet with other names.
func writeCompanies(t *testing.T) string {
	t.Helper()

	book := excelize.NewFile()
	rows := [][]any{{"Name", "CEO", "EmployeeCount", "StartDate", "IsActive"}}
	rows = append(rows, companyRows...)
	addSheet(t, book, "Companies", rows)

	mapped := [][]any{{"Company Title", "Boss", "Employees", "Start Date", "Active"}}
	mapped = append(mapped, companyRows...)
	addSheet(t, book, "ColumnMappings", mapped)

	return saveBook(t, book, "Companies.xlsx")
}

const (
	groupCount  = 6
	peopleCount = 100
)

// groupOf returns the group id of person i.
func groupOf(i int) int {
	return i%groupCount + 1
}

// writeGroups creates a workbook with 6 groups and 100 people.
func writeGroups(t *testing.T) string {
	t.Helper()

	book := excelize.NewFile()
	groups := [][]any{{"Id", "Name"}}
	for id := 1; id <= groupCount; id++ {
		groups = append(groups, []any{id, fmt.Sprintf("Group %d", id)})
	}
	addSheet(t, book, "Groups", groups)

	people := [][]any{{"Name", "GroupId", "Age"}}
	for i := range peopleCount {
		people = append(people, []any{fmt.Sprintf("Person %03d", i), groupOf(i), 20 + i%40})
	}
	addSheet(t, book, "People", people)

	return saveBook(t, book, "Groups.xlsx")
}
