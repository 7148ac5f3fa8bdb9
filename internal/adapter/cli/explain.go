package cli

import (
	"github.com/spf13/cobra"
)

// explainCommand creates the explain subcommand, which shows why a thread's
// anchor sits where it does: the diff separating its anchor revision from the
// working tree and how the captured text changed.
func explainCommand(relocator Relocator) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <id>",
		Short: "Show the changes behind a thread's current position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			explanation, err := relocator.ExplainThread(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderExplanation(cmd.OutOrStdout(), explanation)
			return nil
		},
	}
}
