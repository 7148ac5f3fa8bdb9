package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// workerCommand creates the hidden worker subcommand. The relocation client
// spawns it once per batch; it reads length-prefixed requests on stdin and
// writes responses on stdout until the input side closes.
func workerCommand(serve WorkerServe) *cobra.Command {
	return &cobra.Command{
		Use:    "worker",
		Short:  "Run the relocation worker over stdin/stdout",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if serve == nil {
				return fmt.Errorf("worker loop is not configured")
			}
			if IsOutputTerminal() {
				return fmt.Errorf("worker writes length-prefixed frames on stdout; run it as a spawned subprocess")
			}
			return serve(cmd.Context())
		},
	}
}
