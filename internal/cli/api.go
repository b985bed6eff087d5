package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/tafsiri/tafsiri/internal/api"
	"github.com/tafsiri/tafsiri/internal/conntest"
	"github.com/tafsiri/tafsiri/internal/logger"
)

var (
	apiPort    string
	apiHost    string
	corsOrigin string
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the Tafsiri configuration API server",
	Long: `Start the REST API server exposing:
- Configurations (Create, Read, Update, Delete)
- Relational database connection tests
- Health check

The API runs on HTTP (no authentication).`,
	RunE: runAPI,
}

func init() {
	apiCmd.Flags().StringVarP(&apiPort, "port", "p", "", "Port to run the API server on (overrides config file)")
	apiCmd.Flags().StringVarP(&apiHost, "host", "H", "", "Host to bind the API server to (overrides config file)")
	apiCmd.Flags().StringVarP(&corsOrigin, "cors-origin", "c", "", "CORS origin to allow (overrides config file, use '*' for all origins)")
}

func runAPI(cmd *cobra.Command, args []string) error {
	host := firstNonEmpty(apiHost, cfg.Server.Host, "0.0.0.0")
	port := firstNonEmpty(apiPort, cfg.Server.Port, "8000")
	origin := firstNonEmpty(corsOrigin, cfg.Server.CORSOrigin)

	if !logger.IsDebugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}

	fmt.Printf("🚀 Starting Tafsiri Configuration API\n")
	fmt.Printf("====================================\n")
	fmt.Printf("Store: %s (%s / %s)\n", cfg.Store.Provider, cfg.Store.Database, cfg.Store.Collection)
	fmt.Printf("Host: %s\n", host)
	fmt.Printf("Port: %s\n", port)
	fmt.Printf("CORS Origin: %s\n", firstNonEmpty(origin, "(disabled)"))
	fmt.Println()

	server := api.NewServer(store, conntest.New(), api.Options{
		CORSOrigin: origin,
		RateLimit:  cfg.ConnectionTest.RateLimit,
		Burst:      cfg.ConnectionTest.Burst,
		Logger:     logger.GetLogger(),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("🌐 API Server is running!")
	fmt.Println()
	fmt.Println("📚 Available Endpoints:")
	fmt.Println("    GET    /get_configs                  - List all configurations")
	fmt.Println("    POST   /new_config                   - Create a configuration")
	fmt.Println("    GET    /get_config/:config_id        - Get a configuration")
	fmt.Println("    PUT    /update_config/:config_id     - Update a configuration")
	fmt.Println("    DELETE /delete_config/:config_id     - Delete a configuration")
	fmt.Println("    POST   /test_db_connection           - Test a database connection")
	fmt.Println("    GET    /health                       - Health check")
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop the server")

	address := fmt.Sprintf("%s:%s", host, port)
	if err := server.Run(ctx, address); err != nil {
		return fmt.Errorf("api server failed: %w", err)
	}

	fmt.Println("\n🛑 API server stopped")
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
