package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"subqc/internal/autofix"
	"subqc/internal/qc"
	"subqc/internal/rewrite"
	"subqc/internal/store"
)

func newFixCommand(ctx *commandContext) *cobra.Command {
	var profileID string
	var formatFlag string
	var modeFlag string
	var ruleFlags []string
	var outputPath string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "fix <file>",
		Short: "Apply safe fixes and write the corrected file",
		Long: "Fix evaluates the file, applies the deterministic fixes the " +
			"profile allows, and writes the corrected document. In " +
			"llm-rewrite-with-approval mode it additionally drafts rewrite " +
			"proposals for violations safe fixes could not resolve; the input " +
			"text is never changed until a proposal is approved and applied.",
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
			if modeFlag == "" {
				modeFlag = cfg.QC.FixMode
			}
			mode, err := autofix.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			if mode == autofix.ModeNone {
				return fmt.Errorf("fix mode %q changes nothing; use analyze instead", modeFlag)
			}

			return ctx.withEngine(func(engine *qc.Engine, _ *store.Store) error {
				result, err := engine.Fix(cmd.Context(), qc.Request{
					Input:      input,
					SourceFile: args[0],
					FormatHint: formatHint(formatFlag, args[0]),
					ProfileID:  profileID,
					Mode:       mode,
					Rules:      ruleFlags,
				})
				if err != nil {
					return err
				}

				target := outputPath
				if target == "" {
					target = defaultFixedPath(args[0])
				}
				summaryOut := cmd.OutOrStdout()
				if target == "-" {
					if _, err := cmd.OutOrStdout().Write(result.Output); err != nil {
						return err
					}
					summaryOut = cmd.ErrOrStderr()
				} else {
					if err := os.WriteFile(target, result.Output, 0o644); err != nil {
						return fmt.Errorf("write %s: %w", target, err)
					}
					fmt.Fprintf(summaryOut, "Wrote %s\n", target)
				}

				rep := result.Run.Report
				if jsonOut {
					return writeJSON(cmd, rep)
				}
				renderReportSummary(summaryOut, rep)
				if len(result.Proposals) > 0 {
					renderProposalHint(summaryOut, result.Proposals)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&profileID, "profile", "p", "", "Rule profile id (defaults to the configured default_profile)")
	cmd.Flags().StringVar(&formatFlag, "format", "", "Input format: srt, vtt, or ttml (defaults to the file extension)")
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Fix mode: safe-only or llm-rewrite-with-approval (defaults to the configured fix_mode)")
	cmd.Flags().StringSliceVar(&ruleFlags, "rules", nil, "Restrict safe fixes to these rule ids")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination for the fixed file; - writes to stdout (default <file>.fixed.<ext>)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the full report as JSON")
	return cmd
}

func renderProposalHint(w io.Writer, proposals []rewrite.Proposal) {
	fmt.Fprintln(w)
	rows := make([][]string, 0, len(proposals))
	for _, p := range proposals {
		rows = append(rows, []string{
			p.ID,
			fmt.Sprintf("%d", p.CueIndex),
			joinRuleIDs(p.RuleIDs),
			firstLine(p.Proposed),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"PROPOSAL", "CUE", "RULES", "PROPOSED"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
	))
	fmt.Fprintln(w, "Review with `subqc proposals approve <id>` then `subqc proposals apply <id>`.")
}
