package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/dataprep-cli/internal/clean"
	"github.com/KaramelBytes/dataprep-cli/internal/ingest"
	"github.com/KaramelBytes/dataprep-cli/internal/sink"
)

var (
	clnDropColumns    []string
	clnDropDuplicates bool
	clnDropSparse     bool
	clnFillMean       bool
	clnFillMode       bool
	clnOutputPath     string
	clnDelimiter      string
	clnSheetName      string
	clnSheetIndex     int
	clnPostgresDSN    string
	clnTable          string
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Clean a table and write it as CSV, XLSX or a Postgres table",
	Long: `Apply the cleaning steps in a fixed order: drop columns, drop duplicate rows,
drop columns with fewer than half their cells present, fill numeric columns with the
mean and fill the other columns with the mode. Without --output or --table the cleaned
CSV is written to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		opt, err := readOptions(c, clnDelimiter, clnSheetName, clnSheetIndex)
		if err != nil {
			return err
		}
		log, err := newLogger(c)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		res, err := ingest.ReadFile(path, opt)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, w := range res.Warnings {
			log.Warn("input warning", zap.String("file", path), zap.String("warning", w))
		}

		out, sum := clean.Clean(res.Data, clean.Options{
			DropColumns:         clnDropColumns,
			DropDuplicateRows:   clnDropDuplicates,
			DropSparseColumns:   clnDropSparse,
			FillNumericMean:     clnFillMean,
			FillCategoricalMode: clnFillMode,
		})
		for _, st := range sum.Steps {
			log.Info("clean step",
				zap.String("step", st.Step),
				zap.Int("rows_removed", st.RowsRemoved),
				zap.Strings("columns_removed", st.ColumnsRemoved),
				zap.Int("cells_filled", st.CellsFilled),
				zap.Strings("ignored_columns", st.IgnoredColumns),
			)
		}

		written := false
		if clnOutputPath != "" {
			if err := ingest.WriteFile(clnOutputPath, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote cleaned data to %s (%d rows, %d columns)\n",
				clnOutputPath, out.NumRows(), out.NumCols())
			written = true
		}
		table := clnTable
		if table == "" && clnPostgresDSN != "" {
			table = c.Postgres.Table
			if table == "" {
				table = defaultTable(path)
			}
		}
		if table != "" {
			dsn := clnPostgresDSN
			if dsn == "" {
				dsn = c.Postgres.DSN
			}
			if dsn == "" {
				return fmt.Errorf("--table needs --postgres-dsn or postgres.dsn in config")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()
			pg, err := sink.Open(ctx, dsn, log.WithComponent("sink").Logger)
			if err != nil {
				return err
			}
			defer pg.Close()
			n, err := pg.Write(ctx, table, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Loaded %d rows into %s\n", n, table)
			written = true
		}
		if !written {
			return ingest.WriteCSV(cmd.OutOrStdout(), out)
		}
		return nil
	},
}

// defaultTable derives a table name from an input file name.
func defaultTable(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if s := strings.Trim(b.String(), "_"); s != "" {
		return s
	}
	return "dataset"
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringSliceVar(&clnDropColumns, "drop-columns", nil, "comma-separated columns to drop (unknown names are ignored)")
	cleanCmd.Flags().BoolVar(&clnDropDuplicates, "drop-duplicates", false, "drop duplicate rows, keeping the first")
	cleanCmd.Flags().BoolVar(&clnDropSparse, "drop-sparse", false, "drop columns with fewer than half their cells present")
	cleanCmd.Flags().BoolVar(&clnFillMean, "fill-mean", false, "fill missing numeric cells with the column mean")
	cleanCmd.Flags().BoolVar(&clnFillMode, "fill-mode", false, "fill missing text and boolean cells with the column mode")
	cleanCmd.Flags().StringVarP(&clnOutputPath, "output", "o", "", "output file (.csv or .xlsx)")
	cleanCmd.Flags().StringVar(&clnDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab'")
	cleanCmd.Flags().StringVar(&clnSheetName, "sheet-name", "", "XLSX: sheet name to read")
	cleanCmd.Flags().IntVar(&clnSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	cleanCmd.Flags().StringVar(&clnPostgresDSN, "postgres-dsn", "", "Postgres connection string (overrides postgres.dsn)")
	cleanCmd.Flags().StringVar(&clnTable, "table", "", "load the cleaned data into this Postgres table, replacing it (default postgres.table or the file name)")
}
