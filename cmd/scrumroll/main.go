// Package main is the entry point for the scrumroll CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/flemzord/scrumroll/internal/config"
	"github.com/flemzord/scrumroll/internal/security"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// A .env in the working directory is developer convenience only.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scrumroll",
		Short:         "Notion daily-entry aggregation and pruning toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.AddCommand(
		versionCmd(),
		aggregateCmd(),
		pruneCmd(),
		startCmd(),
		initCmd(),
		serviceCmd(),
		mcpCmd(),
		configCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("scrumroll %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			digest, err := config.Digest(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Configuration OK (digest %s)\n", digest)
			fmt.Printf("  aggregate schedule: %s\n", cfg.Aggregate.Schedule)
			fmt.Printf("  prune schedule:     %s\n", cfg.Prune.Schedule)
			return nil
		},
	})
	return cmd
}

// loadConfig resolves, loads, and validates configuration for a command.
// Returns the config and the path it came from.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		resolved, err := resolveConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = resolved
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// newLogger builds the process logger. The configured credentials are
// redacted from every record, so a misbehaving API error cannot leak the
// token into logs.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	name, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	redactor := security.NewRedactor(cfg.Notion.Token, cfg.Gateway.Token)
	return slog.New(security.NewRedactingHandler(handler, redactor))
}

// resolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/scrumroll/scrumroll.yaml → ./scrumroll.yaml
func resolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "scrumroll", "scrumroll.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "scrumroll", "scrumroll.yaml"))
	}

	candidates = append(candidates, "scrumroll.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}

// defaultConfigPath is where init writes when no --output is given.
func defaultConfigPath() string {
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		return filepath.Join(xdg, "scrumroll", "scrumroll.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "scrumroll", "scrumroll.yaml")
}
