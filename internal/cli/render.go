package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

func render(w io.Writer, format string, columns []string, rows [][]string) error {
	switch strings.ToLower(format) {
	case "json":
		return renderJSON(w, columns, rows)
	case "csv":
		return renderCSV(w, columns, rows)
	default:
		return renderTable(w, columns, rows)
	}
}

func renderTable(w io.Writer, columns []string, rows [][]string) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(columns))
	for i, column := range columns {
		header[i] = column
	}
	t.AppendHeader(header)

	for _, values := range rows {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = v
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

// renderJSON writes one object per row keyed by column name.
func renderJSON(w io.Writer, columns []string, rows [][]string) error {
	results := make([]map[string]string, len(rows))
	for i, values := range rows {
		result := make(map[string]string, len(columns))
		for j, column := range columns {
			if j < len(values) {
				result[column] = values[j]
			}
		}
		results[i] = result
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func renderCSV(w io.Writer, columns []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if len(columns) > 0 {
		if err := cw.Write(columns); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
