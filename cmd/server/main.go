package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chat-log-server/internal/config"
	"chat-log-server/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chat-log-server",
		Short:         "WhatsApp chat message log with contact and conversation views",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}

	cmd.Flags().String("config", "", "Config file path (JSON or YAML, optional)")
	cmd.Flags().Int("port", 0, "HTTP listen port")
	cmd.Flags().String("db-driver", "", "Database driver: sqlite3 or postgres")
	cmd.Flags().String("dsn", "", "Database connection string")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

// loadConfig reads the config file and environment, then applies any flags
// set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	if path = strings.TrimSpace(path); path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
		path = abs
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("db-driver") {
		cfg.Database.Driver, _ = flags.GetString("db-driver")
	}
	if flags.Changed("dsn") {
		cfg.Database.DSN, _ = flags.GetString("dsn")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(cfg *config.Config) error {
	// Initialize logger
	if err := logger.Init(cfg.Logging.Path, cfg.Logging.Level); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	defer logger.Info("Server shutting down")

	// Setup and start server
	srv, database, err := SetupServer(cfg)
	if err != nil {
		logger.Error("Failed to setup server", zap.Error(err))
		return err
	}

	if err := StartServer(srv, database); err != nil {
		logger.Error("Server error", zap.Error(err))
		return err
	}
	return nil
}
