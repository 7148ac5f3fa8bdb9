package config

// Config represents the full application configuration.
type Config struct {
	Repo   RepoConfig   `yaml:"repo"`
	Store  StoreConfig  `yaml:"store"`
	Worker WorkerConfig `yaml:"worker"`
	Log    LogConfig    `yaml:"log"`
	Report ReportConfig `yaml:"report"`
}

// RepoConfig locates the repository whose files threads anchor to.
type RepoConfig struct {
	Path string `yaml:"path"`
}

// StoreConfig configures the thread persistence layer.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// WorkerConfig holds worker process and retry settings.
type WorkerConfig struct {
	// Command is the executable spawned for relocation batches.
	// Empty means re-invoke the current binary with the worker subcommand.
	Command           string  `yaml:"command"`
	Workers           int     `yaml:"workers"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warning, error
	Format string `yaml:"format"` // human, json
}

// ReportConfig configures relocation report output.
type ReportConfig struct {
	Directory string `yaml:"directory"`
}
