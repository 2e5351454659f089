package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"subqc/internal/qc"
	"subqc/internal/store"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded QC runs",
	}
	cmd.AddCommand(newRunsListCommand(ctx))
	cmd.AddCommand(newRunsShowCommand(ctx))
	cmd.AddCommand(newRunsLatestCommand(ctx))
	return cmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(_ *qc.Engine, st *store.Store) error {
				runs, err := st.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID,
						run.CreatedAt.Local().Format(time.DateTime),
						run.SourceFile,
						run.ProfileID,
						run.Mode,
						strconv.Itoa(run.FixCount),
						strconv.Itoa(run.ResidualCount),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"RUN", "CREATED", "SOURCE", "PROFILE", "MODE", "FIXES", "RESIDUAL"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run's report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(_ *qc.Engine, st *store.Store) error {
				run, err := st.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOut || run.Report == nil {
					return writeJSON(cmd, run)
				}
				renderReportSummary(cmd.OutOrStdout(), run.Report)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the full run record as JSON")
	return cmd
}

func newRunsLatestCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latest <file>",
		Short: "Show the newest run recorded for a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(_ *qc.Engine, st *store.Store) error {
				run, err := st.LatestRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run.Report == nil {
					return writeJSON(cmd, run)
				}
				renderReportSummary(cmd.OutOrStdout(), run.Report)
				return nil
			})
		},
	}
	return cmd
}
