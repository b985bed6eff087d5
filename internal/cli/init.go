package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tafsiri/tafsiri/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize tafsiri configuration",
	Long:  `Interactive wizard to set up the configuration store and the API server.`,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("🚀 Welcome to Tafsiri - Configuration Service Setup")
	fmt.Println("===================================================")
	fmt.Println()

	configPath := config.ResolvePath(cfgFile)
	if config.Exists(configPath) {
		fmt.Printf("Configuration file already exists at: %s\n", configPath)
		confirmed, err := promptYesNo(reader, "Do you want to overwrite it? (y/N): ")
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Setup cancelled.")
			return nil
		}
	}

	newCfg := config.DefaultConfig()

	fmt.Println("\n📊 Store Configuration")
	fmt.Println("-----------------------")

	provider, err := promptWithRetry(reader, "Store provider (mongodb/sqlite) [mongodb]: ", validateStoreProvider)
	if err != nil {
		return err
	}
	newCfg.Store.Provider = provider

	if provider == "sqlite" {
		uri, err := promptOptional(reader, "SQLite file [~/.tafsiri/tafsiri.db]: ", "~/.tafsiri/tafsiri.db")
		if err != nil {
			return err
		}
		newCfg.Store.URI = uri
		newCfg.Store.Database = ""
	} else {
		uri, err := promptOptional(reader, "MongoDB URI [mongodb://localhost:27017]: ", "mongodb://localhost:27017")
		if err != nil {
			return err
		}
		newCfg.Store.URI = uri

		dbName, err := promptOptional(reader, "Database name [tafsiri]: ", "tafsiri")
		if err != nil {
			return err
		}
		newCfg.Store.Database = dbName
	}

	collection, err := promptOptional(reader, "Collection name [configs]: ", "configs")
	if err != nil {
		return err
	}
	newCfg.Store.Collection = collection

	fmt.Println("\n🌐 API Server")
	fmt.Println("--------------")

	port, err := promptWithRetry(reader, "Port [8000]: ", func(input string) (string, error) {
		return validatePort(input, "8000")
	})
	if err != nil {
		return err
	}
	newCfg.Server.Port = port

	origin, err := promptOptional(reader, "CORS origin [*]: ", "*")
	if err != nil {
		return err
	}
	newCfg.Server.CORSOrigin = origin

	if err := newCfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Println("\n🔌 Testing store connection...")
	testStore, err := newStore(newCfg.Store)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	ctx := context.Background()
	if err := testStore.Connect(ctx); err != nil {
		fmt.Printf("❌ Failed to connect to store: %v\n", err)
		fmt.Println("\nPlease check your store configuration and try again.")
		return err
	}
	defer testStore.Disconnect(ctx)

	if err := testStore.Ping(ctx); err != nil {
		fmt.Printf("❌ Failed to ping store: %v\n", err)
		return err
	}

	fmt.Println("✅ Store connection successful!")

	fmt.Println("\n💾 Saving configuration...")
	if err := newCfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("✅ Configuration saved to: %s\n", configPath)

	fmt.Println("\n📋 Configuration Summary")
	fmt.Println("========================")
	fmt.Printf("Store: %s\n", newCfg.Store.Provider)
	fmt.Printf("URI: %s\n", newCfg.Store.URI)
	if newCfg.Store.Database != "" {
		fmt.Printf("Database Name: %s\n", newCfg.Store.Database)
	}
	fmt.Printf("Collection: %s\n", newCfg.Store.Collection)
	fmt.Printf("API: %s:%s\n", newCfg.Server.Host, newCfg.Server.Port)
	fmt.Println()
	fmt.Println("🎉 Setup complete! You can now use tafsiri.")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Start the API: tafsiri api")
	fmt.Println("  2. List configurations: tafsiri configs list")
	fmt.Println("  3. Check a database: tafsiri dbtest --db-type postgresql --host-port localhost:5432 ...")

	return nil
}
