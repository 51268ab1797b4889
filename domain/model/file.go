package model

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"
)

// FileType represents supported file types
type FileType int

const (
	// FileTypeCSV represents CSV file type
	FileTypeCSV FileType = iota
	// FileTypeTSV represents TSV file type
	FileTypeTSV
	// FileTypeLTSV represents LTSV file type
	FileTypeLTSV
	// FileTypeXLSX represents Excel workbook file type
	FileTypeXLSX
	// FileTypeParquet represents Parquet file type
	FileTypeParquet
	// FileTypeUnsupported represents unsupported file type
	FileTypeUnsupported
)

// File extensions
const (
	// ExtCSV is the CSV file extension
	ExtCSV = ".csv"
	// ExtTSV is the TSV file extension
	ExtTSV = ".tsv"
	// ExtLTSV is the LTSV file extension
	ExtLTSV = ".ltsv"
	// ExtXLSX is the Excel workbook extension
	ExtXLSX = ".xlsx"
	// ExtParquet is the Parquet file extension
	ExtParquet = ".parquet"
)

// Worksheet is one named grid of cells. Rows[i] holds sheet row i+1.
type Worksheet struct {
	Name string
	Rows []Record
}

// Width returns the number of columns of the widest row.
func (w Worksheet) Width() int {
	width := 0
	for _, r := range w.Rows {
		width = max(width, len(r))
	}
	return width
}

// File is a source file that can be read as a set of worksheets.
type File struct {
	path        string
	fileType    FileType
	compression Compression
}

// NewFile creates a new File
func NewFile(path string) *File {
	compression, base := DetectCompression(path)
	return &File{
		path:        path,
		fileType:    detectFileType(base),
		compression: compression,
	}
}

// IsSupportedFile checks if the file has a supported extension
func IsSupportedFile(fileName string) bool {
	return NewFile(fileName).fileType != FileTypeUnsupported
}

// Path returns file path
func (f *File) Path() string {
	return f.path
}

// Type returns file type
func (f *File) Type() FileType {
	return f.fileType
}

// Compression returns the compression of the file
func (f *File) Compression() Compression {
	return f.compression
}

func detectFileType(path string) FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtCSV:
		return FileTypeCSV
	case ExtTSV:
		return FileTypeTSV
	case ExtLTSV:
		return FileTypeLTSV
	case ExtXLSX:
		return FileTypeXLSX
	case ExtParquet:
		return FileTypeParquet
	default:
		return FileTypeUnsupported
	}
}

// WorksheetNameFromPath derives a worksheet name from a file path by removing
// the directory, the compression extension and the file type extension.
func WorksheetNameFromPath(path string) string {
	_, base := DetectCompression(filepath.Base(path))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Worksheets reads every worksheet of the file. Excel workbooks yield one
// worksheet per sheet, other formats a single worksheet named after the file.
func (f *File) Worksheets() ([]Worksheet, error) {
	if f.fileType == FileTypeUnsupported {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, f.path)
	}

	reader, closer, err := f.openReader()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = closer()
	}()

	switch f.fileType {
	case FileTypeCSV:
		return f.single(parseDelimited(reader, ','))
	case FileTypeTSV:
		return f.single(parseDelimited(reader, '\t'))
	case FileTypeLTSV:
		return f.single(parseLTSV(reader))
	case FileTypeParquet:
		return f.single(parseParquet(reader))
	default:
		return parseXLSX(reader)
	}
}

func (f *File) single(rows []Record, err error) ([]Worksheet, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.path, err)
	}
	return []Worksheet{{Name: WorksheetNameFromPath(f.path), Rows: rows}}, nil
}

// openReader opens file and returns a reader that handles compression
func (f *File) openReader() (io.Reader, func() error, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, nil, err
	}

	reader, closeReader, err := f.compression.NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}

	return reader, func() error {
		return errors.Join(closeReader(), file.Close())
	}, nil
}

func parseDelimited(reader io.Reader, delimiter rune) ([]Record, error) {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([]Record, len(records))
	for i, r := range records {
		rows[i] = NewRecord(r)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// parseLTSV returns a header row of labels in first-seen order followed by the values.
func parseLTSV(reader io.Reader) ([]Record, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	var labels Record
	position := make(map[string]int)
	var lines []map[string]string

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		values := make(map[string]string)
		for _, pair := range strings.Split(line, "\t") {
			key, value, ok := strings.Cut(pair, ":")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			if _, seen := position[key]; !seen {
				position[key] = len(labels)
				labels = append(labels, key)
			}
			values[key] = strings.TrimSpace(value)
		}
		if len(values) > 0 {
			lines = append(lines, values)
		}
	}

	if len(lines) == 0 {
		return nil, nil
	}

	rows := make([]Record, 0, len(lines)+1)
	rows = append(rows, labels)
	for _, values := range lines {
		row := make(Record, len(labels))
		for key, value := range values {
			row[position[key]] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseXLSX(reader io.Reader) ([]Worksheet, error) {
	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		_ = workbook.Close()
	}()

	names := workbook.GetSheetList()
	if len(names) == 0 {
		return nil, ErrEmptyWorkbook
	}

	sheets := make([]Worksheet, 0, len(names))
	for _, name := range names {
		cells, err := workbook.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		rows := make([]Record, len(cells))
		for i, c := range cells {
			rows[i] = NewRecord(c)
		}
		sheets = append(sheets, Worksheet{Name: name, Rows: rows})
	}
	return sheets, nil
}

// parseParquet returns the schema field names followed by every value as text.
// Parquet requires random access, so the data is read into memory first.
func parseParquet(reader io.Reader) ([]Record, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty parquet file")
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	defer table.Release()

	fields := table.Schema().Fields()
	header := make(Record, len(fields))
	for i, field := range fields {
		header[i] = field.Name
	}
	rows := []Record{header}

	tableReader := array.NewTableReader(table, 0)
	defer tableReader.Release()

	for tableReader.Next() {
		batch := tableReader.Record()
		for i := range int(batch.NumRows()) {
			row := make(Record, batch.NumCols())
			for j, col := range batch.Columns() {
				if !col.IsNull(i) {
					row[j] = col.ValueStr(i)
				}
			}
			rows = append(rows, row)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("error reading table records: %w", err)
	}
	return rows, nil
}
