package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"subqc/internal/qc"
	"subqc/internal/store"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var profileID string
	var formatFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Evaluate a subtitle file against a rule profile",
		Long: "Analyze decodes a subtitle file, evaluates every rule in the " +
			"selected profile, and prints the findings without changing anything. " +
			"The command exits non-zero when error-severity issues remain, so it " +
			"can gate a delivery pipeline.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			input, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if profileID == "" {
				profileID = cfg.QC.DefaultProfile
			}

			return ctx.withEngine(func(engine *qc.Engine, _ *store.Store) error {
				result, err := engine.Analyze(cmd.Context(), qc.Request{
					Input:      input,
					SourceFile: args[0],
					FormatHint: formatHint(formatFlag, args[0]),
					ProfileID:  profileID,
				})
				if err != nil {
					return err
				}
				rep := result.Run.Report
				if jsonOut {
					if err := writeJSON(cmd, rep); err != nil {
						return err
					}
				} else {
					renderReportSummary(cmd.OutOrStdout(), rep)
				}
				if rep.HasErrors() {
					return fmt.Errorf("%d error-severity issues remain", rep.SeverityCounts["error"])
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&profileID, "profile", "p", "", "Rule profile id (defaults to the configured default_profile)")
	cmd.Flags().StringVar(&formatFlag, "format", "", "Input format: srt, vtt, or ttml (defaults to the file extension)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the full report as JSON")
	return cmd
}
