package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/sheetquery"
	"github.com/nao1215/sheetquery/config"
	"github.com/nao1215/sheetquery/domain/model"
)

func newColumnsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "columns [worksheet]",
		Short: "Show the columns of a worksheet with their inferred types",
		Long: `Show the header of a worksheet. The type of every column is inferred
from its values: INTEGER, REAL, DATETIME or TEXT.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := getEnvironment(cmd)
			if err != nil {
				return err
			}
			worksheet := env.cfg.Worksheet
			if len(args) == 1 {
				worksheet = args[0]
			}

			columns, err := describeColumns(cmd.Context(), env.factory, env.cfg, worksheet)
			if err != nil {
				return err
			}
			rows := make([][]string, len(columns))
			for i, c := range columns {
				rows[i] = []string{strconv.Itoa(i + 1), c.Name, c.Type.String()}
			}
			return render(cmd.OutOrStdout(), env.cfg.Output, []string{"position", "column", "type"}, rows)
		},
	}
}

// describeColumns reads worksheet and infers the type of each column.
func describeColumns(ctx context.Context, factory *sheetquery.QueryFactory, cfg *config.Config, worksheet string) ([]model.ColumnInfo, error) {
	rows, err := rowQuery(factory, cfg, worksheet).ToSlice(ctx)
	if err != nil {
		return nil, err
	}

	var header []string
	if len(rows) > 0 {
		header = rows[0].Columns()
	} else {
		if worksheet == "" {
			names, err := factory.WorksheetNames(ctx)
			if err != nil {
				return nil, err
			}
			worksheet = names[0]
		}
		if header, err = factory.ColumnNames(ctx, worksheet); err != nil {
			return nil, err
		}
	}

	records := make([]model.Record, len(rows))
	for i, row := range rows {
		records[i] = model.NewRecord(row.Values())
	}
	return model.InferColumnsInfo(model.NewHeader(header), records), nil
}

// rowQuery starts an untyped query of worksheet, or of the first worksheet
// when the name is empty, with the range and header settings of cfg.
func rowQuery(factory *sheetquery.QueryFactory, cfg *config.Config, worksheet string) *sheetquery.Query[sheetquery.Row] {
	var q *sheetquery.Query[sheetquery.Row]
	if worksheet == "" {
		q = sheetquery.WorksheetAt[sheetquery.Row](factory, 0)
	} else {
		q = sheetquery.Worksheet[sheetquery.Row](factory, worksheet)
	}
	if cfg.StartRange != "" || cfg.EndRange != "" {
		q = q.Range(cfg.StartRange, cfg.EndRange)
	}
	if cfg.NoHeader {
		q = q.NoHeader()
	}
	return q
}
