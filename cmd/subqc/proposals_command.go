package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"subqc/internal/qc"
	"subqc/internal/store"
)

func newProposalsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "Review and apply rewrite proposals",
		Long: "Rewrite proposals are drafts produced in " +
			"llm-rewrite-with-approval mode. Nothing touches the subtitle text " +
			"until a reviewer approves a proposal and applies it, which records " +
			"a new run chained to the original.",
	}
	cmd.AddCommand(newProposalsListCommand(ctx))
	cmd.AddCommand(newProposalShowCommand(ctx))
	cmd.AddCommand(newProposalApproveCommand(ctx))
	cmd.AddCommand(newProposalRejectCommand(ctx))
	cmd.AddCommand(newProposalApplyCommand(ctx))
	cmd.AddCommand(newProposalsExpireCommand(ctx))
	return cmd
}

func newProposalsListCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <run-id>",
		Short: "List the proposals drafted for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(_ *qc.Engine, st *store.Store) error {
				proposals, err := st.ListProposals(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(proposals))
				for _, p := range proposals {
					rows = append(rows, []string{
						p.ID,
						strconv.Itoa(p.CueIndex),
						joinRuleIDs(p.RuleIDs),
						string(p.State),
						p.ExpiresAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"PROPOSAL", "CUE", "RULES", "STATE", "EXPIRES"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	return cmd
}

func newProposalShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <proposal-id>",
		Short: "Print one proposal as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(_ *qc.Engine, st *store.Store) error {
				p, err := st.GetProposal(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, p)
			})
		},
	}
}

func newProposalApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <proposal-id>",
		Short: "Approve a pending proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(engine *qc.Engine, _ *store.Store) error {
				if err := engine.ApproveProposal(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Approved %s\n", args[0])
				return nil
			})
		},
	}
}

func newProposalRejectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <proposal-id>",
		Short: "Reject a pending proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(engine *qc.Engine, _ *store.Store) error {
				if err := engine.RejectProposal(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rejected %s\n", args[0])
				return nil
			})
		},
	}
}

func newProposalApplyCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "apply <proposal-id>",
		Short: "Write an approved proposal into its document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(engine *qc.Engine, _ *store.Store) error {
				result, err := engine.ApplyProposal(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if outputPath == "" || outputPath == "-" {
					_, err := cmd.OutOrStdout().Write(result.Output)
					return err
				}
				if err := os.WriteFile(outputPath, result.Output, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outputPath, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (run %s)\n", outputPath, result.Run.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination for the updated file (default stdout)")
	return cmd
}

func newProposalsExpireCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Mark pending proposals past their review window as expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(_ *qc.Engine, st *store.Store) error {
				count, err := st.ExpirePending(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Expired %d proposals\n", count)
				return nil
			})
		},
	}
}
