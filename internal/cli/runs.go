package cli

import (
	"fmt"
	"os"

	"github.com/rustyeddy/tradelab/journal"
	"github.com/spf13/cobra"
)

func newRunsCmd(rs *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect backtest runs stored in a SQLite journal",
	}

	var (
		dbPath  string
		outPath string
	)
	exportCmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export a stored run and its trades as an Org report",
		Long: `Rebuild the Org report of a backtest recorded with --journal sqlite.

Example:
  tradelab runs export RUN-1 --db runs.sqlite -o run.org`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = rs.cfg.Journal.DBPath
			}
			if dbPath == "" {
				return fmt.Errorf("--db is required")
			}
			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("runs: %w", err)
			}

			db, err := journal.NewSQLite(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			org, err := db.ExportBacktestOrg(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rs.log.WithField("run_id", args[0]).Info("run exported")

			if outPath == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), org)
				return err
			}
			return os.WriteFile(outPath, []byte(org), 0o644)
		},
	}
	exportCmd.Flags().StringVar(&dbPath, "db", "", "SQLite journal database (default journal.db_path)")
	exportCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default stdout)")

	cmd.AddCommand(exportCmd)
	return cmd
}
