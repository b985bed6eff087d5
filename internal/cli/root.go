package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tafsiri/tafsiri/internal/config"
	"github.com/tafsiri/tafsiri/internal/db"
	"github.com/tafsiri/tafsiri/internal/db/mongodb"
	"github.com/tafsiri/tafsiri/internal/db/sqlite"
	"github.com/tafsiri/tafsiri/internal/logger"
	"github.com/tafsiri/tafsiri/internal/models"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
	store    db.ConfigStore
)

// commands that run without a config file or a store connection
var standalone = map[string]bool{
	"init":   true,
	"dbtest": true,
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tafsiri",
	Short: "Configuration service for the Tafsiri API",
	Long: `Tafsiri manages the configurations used by the Tafsiri API.

Configurations are stored in MongoDB (or a local SQLite file) and exposed
through a small REST API. The service can also check that a relational
database is reachable with a given set of credentials.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if standalone[cmd.Name()] {
			logger.Init(logger.ParseLogLevel(logLevel), os.Stderr)
			return nil
		}

		configPath := config.ResolvePath(cfgFile)
		if !config.Exists(configPath) {
			return fmt.Errorf("configuration file not found at %s. Run 'tafsiri init' to create one", configPath)
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		logger.Init(logger.ParseLogLevel(level), os.Stderr)

		store, err = newStore(cfg.Store)
		if err != nil {
			return fmt.Errorf("failed to create store: %w", err)
		}

		if err := store.Connect(cmd.Context()); err != nil {
			return fmt.Errorf("failed to connect to store: %w", err)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store != nil {
			return store.Disconnect(context.Background())
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $TAFSIRI_CONFIG_PATH or $HOME/.tafsiri/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warning, error (overrides config file)")

	// Disable completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(configsCmd)
	rootCmd.AddCommand(dbtestCmd)
}

// newStore creates the configuration store selected by the config file
func newStore(sc config.StoreConfig) (db.ConfigStore, error) {
	storeConfig := &models.Config{
		Provider:         sc.Provider,
		URI:              sc.URI,
		Database:         sc.Database,
		Collection:       sc.Collection,
		Options:          sc.Options,
		AllowNoopUpdates: sc.AllowNoopUpdates,
	}

	switch sc.Provider {
	case "mongodb":
		return mongodb.New(storeConfig)
	case "sqlite":
		return sqlite.New(storeConfig)
	default:
		return nil, fmt.Errorf("unsupported store provider: %s", sc.Provider)
	}
}
