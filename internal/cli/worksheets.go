package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newWorksheetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worksheets",
		Short: "List the worksheets of a source",
		Long: `List the worksheets of a source in order. Sheets of a workbook keep
their names, other files are named after the file without extensions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := getEnvironment(cmd)
			if err != nil {
				return err
			}
			names, err := env.factory.WorksheetNames(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(names))
			for i, name := range names {
				rows[i] = []string{strconv.Itoa(i), name}
			}
			return render(cmd.OutOrStdout(), env.cfg.Output, []string{"index", "worksheet"}, rows)
		},
	}
}
