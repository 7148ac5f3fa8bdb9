package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from files and environment variables.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "ra"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "RA"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Expand environment variables in config values
	cfg = expandEnvVars(cfg)

	return cfg, nil
}

// expandEnvVars expands ~, ${VAR}, and $VAR syntax in configuration strings.
func expandEnvVars(cfg Config) Config {
	cfg.Repo.Path = expandEnvString(cfg.Repo.Path)
	cfg.Store.Path = expandEnvString(cfg.Store.Path)
	cfg.Worker.Command = expandEnvString(cfg.Worker.Command)
	cfg.Log.Level = expandEnvString(cfg.Log.Level)
	cfg.Log.Format = expandEnvString(cfg.Log.Format)
	cfg.Report.Directory = expandEnvString(cfg.Report.Directory)
	return cfg
}

// expandEnvString replaces a leading ~ with the home directory and ${VAR} or
// $VAR with environment variable values.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	if s == "~" || strings.HasPrefix(s, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			s = home + s[1:]
		}
	}

	// Replace ${VAR} syntax
	re := regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1] // Remove ${ and }
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Keep original if not found
	})

	// Replace $VAR syntax (without braces)
	re = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:] // Remove $
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Keep original if not found
	})

	return s
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("repo.path", ".")

	v.SetDefault("store.path", defaultStorePath())

	// Worker defaults
	v.SetDefault("worker.command", "")
	v.SetDefault("worker.workers", 4)
	v.SetDefault("worker.maxRetries", 2)
	v.SetDefault("worker.initialBackoff", "250ms")
	v.SetDefault("worker.maxBackoff", "2s")
	v.SetDefault("worker.backoffMultiplier", 2.0)

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "human")

	v.SetDefault("report.directory", "out")
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./threads.db"
	}
	return filepath.Join(home, ".config", "ra", "threads.db")
}
