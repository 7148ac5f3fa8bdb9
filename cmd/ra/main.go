package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/anchorlab/reanchor/internal/adapter/cli"
	"github.com/anchorlab/reanchor/internal/adapter/git"
	"github.com/anchorlab/reanchor/internal/adapter/observability"
	"github.com/anchorlab/reanchor/internal/adapter/output/report"
	"github.com/anchorlab/reanchor/internal/adapter/store/sqlite"
	"github.com/anchorlab/reanchor/internal/adapter/workerproc"
	"github.com/anchorlab/reanchor/internal/config"
	"github.com/anchorlab/reanchor/internal/usecase/relocate"
	"github.com/anchorlab/reanchor/internal/version"
)

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	// Create cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "ra",
		EnvPrefix:   "RA",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger := buildLogger(cfg.Log)

	repoDir := cfg.Repo.Path
	if repoDir == "" {
		repoDir = "."
	}
	engine := git.NewEngine(repoDir)

	storeDir := filepath.Dir(cfg.Store.Path)
	if err := os.MkdirAll(storeDir, 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	store, err := sqlite.NewStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open thread store: %w", err)
	}
	defer store.Close()

	channel, err := workerproc.NewClient(workerproc.ClientDeps{
		Command: cfg.Worker.Command,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("configure worker channel: %w", err)
	}

	service, err := relocate.NewService(relocate.ServiceDeps{
		Source:  engine,
		Channel: channel,
		Store:   store,
		Logger:  logger,
		Retry:   buildRetryConfig(cfg.Worker),
	})
	if err != nil {
		return fmt.Errorf("wire relocation service: %w", err)
	}

	// The worker subcommand serves batches over the process's own stdin and
	// stdout. Its logger shares stderr with everything else; stdout carries
	// only frames.
	workerServe := func(ctx context.Context) error {
		worker := relocate.NewWorker(relocate.WorkerDeps{
			Workers: cfg.Worker.Workers,
			Logger:  logger,
		})
		return workerproc.Serve(ctx, os.Stdin, os.Stdout, worker, logger)
	}

	// Timestamp function for deterministic report file naming
	nowFunc := func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Relocator:        service,
		WorkerServe:      workerServe,
		ReportWriter:     report.NewWriter(nowFunc),
		DefaultReportDir: cfg.Report.Directory,
		DefaultAuthor:    os.Getenv("USER"),
		Version:          version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ra"))
	}
	return paths
}

func buildLogger(cfg config.LogConfig) *observability.DefaultLogger {
	level, err := observability.ParseLevel(cfg.Level)
	if err != nil {
		log.Printf("warning: %v, using info", err)
	}
	format, err := observability.ParseFormat(cfg.Format)
	if err != nil {
		log.Printf("warning: %v, using human", err)
	}
	return observability.NewDefaultLogger(level, format)
}

func buildRetryConfig(cfg config.WorkerConfig) relocate.RetryConfig {
	retry := relocate.DefaultRetryConfig()
	if cfg.MaxRetries >= 0 {
		retry.MaxRetries = cfg.MaxRetries
	}
	if cfg.InitialBackoff != "" {
		if parsed, err := time.ParseDuration(cfg.InitialBackoff); err == nil {
			retry.InitialBackoff = parsed
		} else {
			log.Printf("warning: invalid initial backoff %q, using default %s", cfg.InitialBackoff, retry.InitialBackoff)
		}
	}
	if cfg.MaxBackoff != "" {
		if parsed, err := time.ParseDuration(cfg.MaxBackoff); err == nil {
			retry.MaxBackoff = parsed
		} else {
			log.Printf("warning: invalid max backoff %q, using default %s", cfg.MaxBackoff, retry.MaxBackoff)
		}
	}
	if cfg.BackoffMultiplier > 0 {
		retry.Multiplier = cfg.BackoffMultiplier
	}
	return retry
}

// Compile-time interface compliance checks
var _ relocate.ContentSource = (*git.Engine)(nil)
var _ relocate.Channel = (*workerproc.Client)(nil)
var _ relocate.ThreadStore = (*sqlite.Store)(nil)
var _ relocate.Logger = (*observability.DefaultLogger)(nil)
var _ cli.Relocator = (*relocate.Service)(nil)
var _ cli.ReportWriter = (*report.Writer)(nil)
