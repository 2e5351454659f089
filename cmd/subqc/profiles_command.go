package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newProfilesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the available rule profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.registry()
			if err != nil {
				return err
			}

			rows := make([][]string, 0)
			for _, id := range registry.IDs() {
				prof, err := registry.Get(id)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					prof.ID,
					strconv.Itoa(prof.MaxCPL),
					strconv.Itoa(prof.MaxLines),
					fmt.Sprintf("%d-%d", prof.MinDurationMs, prof.MaxDurationMs),
					strconv.FormatInt(prof.MinGapMs, 10),
					strconv.FormatFloat(prof.MaxCPS, 'f', -1, 64),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"PROFILE", "CPL", "LINES", "DURATION MS", "GAP MS", "CPS"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.AddCommand(newProfileShowCommand(ctx))
	return cmd
}

func newProfileShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one profile as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.registry()
			if err != nil {
				return err
			}
			prof, err := registry.Get(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, prof)
		},
	}
}
