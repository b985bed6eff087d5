package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tafsiri/tafsiri/internal/conntest"
	"github.com/tafsiri/tafsiri/internal/models"
)

var (
	dbtestType     string
	dbtestHostPort string
	dbtestDatabase string
	dbtestUsername string
	dbtestPassword string
)

var dbtestCmd = &cobra.Command{
	Use:   "dbtest",
	Short: "Test a relational database connection",
	Long: `Open a single connection to a relational database, ping it and close it.

Missing flags are asked for interactively. Supported database types:
postgresql, postgres, mysql, mariadb, sqlite (a "dialect+driver" form such as
postgresql+psycopg2 is accepted).`,
	RunE: runDBTest,
}

func init() {
	dbtestCmd.Flags().StringVar(&dbtestType, "db-type", "", "Database type (e.g. postgresql, mysql)")
	dbtestCmd.Flags().StringVar(&dbtestHostPort, "host-port", "", "Database host and port (e.g. localhost:5432)")
	dbtestCmd.Flags().StringVar(&dbtestDatabase, "database", "", "Database name (file path for sqlite)")
	dbtestCmd.Flags().StringVar(&dbtestUsername, "username", "", "Database username")
	dbtestCmd.Flags().StringVar(&dbtestPassword, "password", "", "Database password")
}

func runDBTest(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	var err error
	if dbtestType == "" {
		if dbtestType, err = promptWithRetry(reader, fmt.Sprintf("%sDatabase type: %s", LabelStyle, Reset), validateDBType); err != nil {
			return err
		}
	} else if _, err := validateDBType(dbtestType); err != nil {
		return err
	}
	if dbtestHostPort == "" {
		if dbtestHostPort, err = promptWithRetry(reader, fmt.Sprintf("%sHost:port: %s", LabelStyle, Reset), validateHostPort); err != nil {
			return err
		}
	}
	if dbtestDatabase == "" {
		if dbtestDatabase, err = promptRequired(reader, fmt.Sprintf("%sDatabase: %s", LabelStyle, Reset)); err != nil {
			return err
		}
	}
	if !cmd.Flags().Changed("username") {
		if dbtestUsername, err = promptOptional(reader, fmt.Sprintf("%sUsername: %s", LabelStyle, Reset), ""); err != nil {
			return err
		}
	}
	if !cmd.Flags().Changed("password") {
		if dbtestPassword, err = promptOptional(reader, fmt.Sprintf("%sPassword: %s", LabelStyle, Reset), ""); err != nil {
			return err
		}
	}

	req := connectionRequestFor(dbtestType, dbtestHostPort, dbtestDatabase)
	req.Username = dbtestUsername
	req.Password = dbtestPassword

	fmt.Printf("\n%s🔌 Testing %s connection to %s...%s\n", InfoStyle, req.DBType, req.HostPort, Reset)

	if err := conntest.New(conntest.WithLocalFiles()).Test(cmd.Context(), req); err != nil {
		fmt.Printf("%s❌ Connection failed: %s%s\n", ErrorStyle, models.KindOf(err), Reset)
		return err
	}

	fmt.Printf("%s✅ Database connection successful%s\n", SuccessStyle, Reset)
	return nil
}

func connectionRequestFor(dbType, hostPort, database string) models.ConnectionRequest {
	return models.ConnectionRequest{
		DBType:   dbType,
		HostPort: hostPort,
		Database: database,
	}
}
