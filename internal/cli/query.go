package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/sheetquery/log"
)

// ErrInvalidWhere is returned for a --where expression that cannot be parsed.
var ErrInvalidWhere = errors.New("invalid where expression")

// symbolOperators are tried in order so that two character operators win.
var symbolOperators = []string{">=", "<=", "!=", "<>", "==", "=", ">", "<"}

// wordOperators must be surrounded by spaces.
var wordOperators = []string{"contains", "like"}

type whereClause struct {
	column   string
	operator string
	value    any
}

// parseWhere parses "column op value". Quoted values are text, other values
// that parse as numbers compare numerically.
func parseWhere(expr string) (whereClause, error) {
	lower := strings.ToLower(expr)
	for _, op := range wordOperators {
		if i := strings.Index(lower, " "+op+" "); i > 0 {
			return newWhereClause(expr, expr[:i], op, expr[i+len(op)+2:])
		}
	}
	for _, op := range symbolOperators {
		if i := strings.Index(expr, op); i > 0 {
			return newWhereClause(expr, expr[:i], op, expr[i+len(op):])
		}
	}
	return whereClause{}, fmt.Errorf("%w: %q has no operator", ErrInvalidWhere, expr)
}

func newWhereClause(expr, column, op, value string) (whereClause, error) {
	column = strings.TrimSpace(column)
	value = strings.TrimSpace(value)
	if column == "" {
		return whereClause{}, fmt.Errorf("%w: %q has no column", ErrInvalidWhere, expr)
	}

	if unquoted, err := strconv.Unquote(value); err == nil {
		return whereClause{column: column, operator: op, value: unquoted}, nil
	}
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		return whereClause{column: column, operator: op, value: value[1 : len(value)-1]}, nil
	}
	if op != "like" && op != "contains" {
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return whereClause{column: column, operator: op, value: n}, nil
		}
	}
	return whereClause{column: column, operator: op, value: value}, nil
}

func newQueryCommand() *cobra.Command {
	var (
		wheres    []string
		cellRange string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "query [worksheet]",
		Short: "Print the rows of a worksheet",
		Long: `Print the rows of a worksheet that match every --where filter.

Filters have the form "column op value" where op is one of
=, ==, !=, <>, <, <=, >, >=, like or contains. Numbers compare
numerically, quoted values always compare as text.`,
		Example: `  sheetquery query -f Companies.xlsx Companies --where "EmployeeCount >= 100"
  sheetquery query -f people.csv --where "Name like 'A%'" -o json
  sheetquery query -f Companies.xlsx --range B2:D10 --no-header`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := getEnvironment(cmd)
			if err != nil {
				return err
			}
			cfg := *env.cfg
			if len(args) == 1 {
				cfg.Worksheet = args[0]
			}
			if cellRange != "" {
				start, end, _ := strings.Cut(cellRange, ":")
				cfg.StartRange, cfg.EndRange = start, end
			}

			q := rowQuery(env.factory, &cfg, cfg.Worksheet)
			for _, expr := range wheres {
				w, err := parseWhere(expr)
				if err != nil {
					return err
				}
				q = q.Where(w.column, w.operator, w.value)
			}

			var (
				columns []string
				rows    [][]string
			)
			for row, err := range q.All(cmd.Context()) {
				if err != nil {
					return err
				}
				if columns == nil {
					columns = row.Columns()
				}
				rows = append(rows, row.Values())
				if limit > 0 && len(rows) >= limit {
					break
				}
			}
			env.logger.Debug("query finished", log.Fields{
				log.WorksheetField: cfg.Worksheet,
				"rows":             len(rows),
			})
			return render(cmd.OutOrStdout(), cfg.Output, columns, rows)
		},
	}

	cmd.Flags().StringArrayVar(&wheres, "where", nil, `filter such as "Age >= 30" (repeatable, all must match)`)
	cmd.Flags().StringVar(&cellRange, "range", "", "cell range such as A1:C10, the first row is the header")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of rows to print (0 for all)")
	return cmd
}
