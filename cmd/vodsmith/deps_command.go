package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vodsmith/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check availability of required external tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Default(cfg))

			if jsonOut {
				items := make([]map[string]any, 0, len(statuses))
				for _, status := range statuses {
					items = append(items, map[string]any{
						"name":      status.Name,
						"command":   status.Command,
						"available": status.Available,
						"detail":    status.Detail,
					})
				}
				return writeJSON(cmd, map[string]any{"dependencies": items})
			}

			headers := []string{"Tool", "Command", "Available", "Detail"}
			rows := make([][]string, 0, len(statuses))
			missing := 0
			for _, status := range statuses {
				available := "yes"
				if !status.Available {
					available = "no"
					missing++
				}
				rows = append(rows, []string{status.Name, status.Command, available, status.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, nil))
			if missing > 0 {
				return fmt.Errorf("%d required tool(s) missing", missing)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine readable output")
	return cmd
}
