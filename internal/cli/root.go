// Package cli provides the command-line interface for sheetquery.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/sheetquery"
	"github.com/nao1215/sheetquery/config"
	"github.com/nao1215/sheetquery/log"
	"github.com/nao1215/sheetquery/log/zerolog"
)

// Version information (set at build time).
var Version = "dev"

// environment is what every command runs with.
type environment struct {
	cfg     *config.Config
	logger  log.Logger
	factory *sheetquery.QueryFactory
}

// environmentKey is used to store the environment in the command context.
type environmentKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "sheetquery",
		Short: "Query spreadsheets from the command line",
		Long: `sheetquery reads Excel workbooks, CSV, TSV, LTSV and Parquet files
(optionally compressed) and prints worksheets, their columns and the rows
matching simple filters.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			env, err := newEnvironment(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), environmentKey{}, env))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (YAML)")
	flags.StringP("file", "f", "", "spreadsheet file or directory to read")
	flags.StringP("worksheet", "w", "", "worksheet name (default: first worksheet)")
	flags.String("engine", "", "query engine (default: "+sheetquery.DefaultEngine+")")
	flags.String("strict-mapping", "", "strict mapping mode (None|ClassStrict|WorksheetStrict|Both)")
	flags.Bool("no-header", false, "treat the first row as data and name columns by letter")
	flags.StringP("output", "o", "", "output format (table|json|csv)")
	flags.String("log-level", "", "log level (trace|debug|info|warn|error)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newWorksheetsCommand())
	rootCmd.AddCommand(newColumnsCommand())
	rootCmd.AddCommand(newQueryCommand())

	return rootCmd
}

func newEnvironment(cfg *config.Config, stderr io.Writer) (*environment, error) {
	logger := zerolog.NewConsoleLogger(stderr, cfg.LogLevel)

	// Type mappings need Go types, rows are printed untyped.
	settings := *cfg
	settings.Mappings = nil
	factory := sheetquery.NewQueryFactory(cfg.File).WithLogger(logger)
	if err := factory.ApplyConfig(&settings); err != nil {
		return nil, err
	}
	if len(cfg.Mappings) > 0 {
		logger.Debug("type mappings are ignored for untyped rows", log.Fields{"mappings": len(cfg.Mappings)})
	}
	logger.Debug("configuration loaded", log.Fields{
		log.FileField: cfg.File,
		"engine":      cfg.Engine,
		"output":      cfg.Output,
	})
	return &environment{cfg: cfg, logger: logger, factory: factory}, nil
}

// getEnvironment retrieves the environment from the command context.
func getEnvironment(cmd *cobra.Command) (*environment, error) {
	if env, ok := cmd.Context().Value(environmentKey{}).(*environment); ok {
		return env, nil
	}
	return nil, fmt.Errorf("%s: configuration not loaded", cmd.Name())
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
