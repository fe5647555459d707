// Command cardctl previews and imports card spreadsheets from the command
// line, using the same store and import pipeline as the web server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cardadmin/internal/config"
	"github.com/JonMunkholm/cardadmin/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags. Set flags take precedence over
// the environment and .env.
type rootOptions struct {
	driver      string
	databaseURL string
	logLevel    string
	noMigrate   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "cardctl",
		Short:        "Preview and import card spreadsheets",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is fine; the environment may carry everything.
			_ = godotenv.Overload()
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.driver, "driver", "", "store driver: pgx, gorm-postgres, sqlite or memory (default STORE_DRIVER)")
	flags.StringVar(&opts.databaseURL, "database-url", "", "connection string or sqlite file (default DATABASE_URL)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	flags.BoolVar(&opts.noMigrate, "no-migrate", false, "do not create missing tables")

	cmd.AddCommand(
		newPreviewCmd(opts),
		newImportCmd(opts),
		newSetsCmd(opts),
	)
	return cmd
}

// load reads the configuration with flags layered over the environment
// and installs the logger on stderr. Commands that never touch the store
// fall back to the memory driver so no DATABASE_URL is needed.
func (o *rootOptions) load(cmd *cobra.Command, needStore bool) (*config.Config, error) {
	getenv := func(key string) string {
		switch key {
		case "STORE_DRIVER":
			if !needStore {
				return config.DriverMemory
			}
			if o.driver != "" {
				return o.driver
			}
		case "DATABASE_URL":
			if o.databaseURL != "" {
				return o.databaseURL
			}
		case "DB_AUTO_MIGRATE":
			if o.noMigrate {
				return "false"
			}
		case "LOG_LEVEL":
			// The CLI is quieter than the server unless asked otherwise.
			if v := os.Getenv(key); v != "" && !cmd.Flags().Changed("log-level") {
				return v
			}
			return o.logLevel
		}
		return os.Getenv(key)
	}

	cfg, err := config.LoadFrom(getenv)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format))
	return cfg, nil
}
