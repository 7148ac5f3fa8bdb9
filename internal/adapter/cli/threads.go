package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anchorlab/reanchor/internal/domain"
	"github.com/anchorlab/reanchor/internal/usecase/relocate"
)

// threadsCommand groups the thread lifecycle subcommands.
func threadsCommand(relocator Relocator, defaultAuthor string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threads",
		Short: "Manage comment threads",
	}
	cmd.AddCommand(threadsAddCommand(relocator, defaultAuthor))
	cmd.AddCommand(threadsListCommand(relocator))
	cmd.AddCommand(threadsResolveCommand(relocator))
	cmd.AddCommand(threadsRemoveCommand(relocator))
	return cmd
}

func threadsAddCommand(relocator Relocator, defaultAuthor string) *cobra.Command {
	var rangeKey string
	var revision string
	var author string
	var body string

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Anchor a new comment thread to a range of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			anchorRange, err := domain.ParseRangeKey(rangeKey)
			if err != nil {
				return fmt.Errorf("parse --range: %w", err)
			}

			thread, err := relocator.CreateThread(cmd.Context(), relocate.CreateThreadInput{
				Path:     args[0],
				Revision: revision,
				Range:    anchorRange,
				Author:   author,
				Body:     body,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "thread %s anchored at %s @ %s\n",
				thread.ID, thread.Anchor.Range.String(), shortHash(thread.Anchor.Revision))
			return nil
		},
	}

	cmd.Flags().StringVar(&rangeKey, "range", "", "Anchored range as startLine,startColumn,endLine,endColumn (1-indexed, end exclusive)")
	cmd.Flags().StringVar(&revision, "at", "", "Revision the range refers to (defaults to the checked-out revision)")
	cmd.Flags().StringVar(&author, "author", defaultAuthor, "Thread author")
	cmd.Flags().StringVarP(&body, "message", "m", "", "Comment body")
	_ = cmd.MarkFlagRequired("range")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func threadsListCommand(relocator Relocator) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list [path]",
		Short: "List stored threads, optionally limited to one file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}

			threads, err := relocator.ListThreads(cmd.Context(), path)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), threads)
			}
			renderThreads(cmd.OutOrStdout(), threads)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit threads as JSON")

	return cmd
}

func threadsResolveCommand(relocator Relocator) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id>",
		Short: "Mark a thread resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := relocator.ResolveThread(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "thread %s resolved\n", args[0])
			return nil
		},
	}
}

func threadsRemoveCommand(relocator Relocator) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a thread and its anchor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := relocator.DeleteThread(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "thread %s deleted\n", args[0])
			return nil
		},
	}
}
