package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/anchorlab/reanchor/internal/domain"
	"github.com/anchorlab/reanchor/internal/usecase/relocate"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Relocator defines the thread and anchor operations the commands invoke.
type Relocator interface {
	RelocateFile(ctx context.Context, path string) (relocate.Report, error)
	CreateThread(ctx context.Context, input relocate.CreateThreadInput) (domain.Thread, error)
	ListThreads(ctx context.Context, path string) ([]domain.Thread, error)
	ResolveThread(ctx context.Context, id string) error
	DeleteThread(ctx context.Context, id string) error
	ExplainThread(ctx context.Context, id string) (relocate.Explanation, error)
}

// ReportWriter persists a relocation report and returns the written path.
type ReportWriter interface {
	Write(ctx context.Context, report relocate.Report, outputDir string) (string, error)
}

// WorkerServe runs the relocation worker loop over the process's standard
// streams until the input side closes.
type WorkerServe func(ctx context.Context) error

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Relocator        Relocator
	WorkerServe      WorkerServe
	ReportWriter     ReportWriter
	Args             Arguments
	DefaultReportDir string
	DefaultAuthor    string
	Version          string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "ra",
		Short: "Keep comment threads anchored to code as it changes",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(relocateCommand(deps.Relocator, deps.ReportWriter, deps.DefaultReportDir))
	root.AddCommand(threadsCommand(deps.Relocator, deps.DefaultAuthor))
	root.AddCommand(explainCommand(deps.Relocator))
	root.AddCommand(workerCommand(deps.WorkerServe))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}
