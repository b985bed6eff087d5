package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tafsiri/tafsiri/internal/models"
)

var configsCmd = &cobra.Command{
	Use:   "configs",
	Short: "Manage stored configurations",
	Long:  `List, inspect and delete the configurations served by the API.`,
}

var configsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configurations",
	RunE:  runConfigsList,
}

var configsGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show a configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigsGet,
}

var configsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigsDelete,
}

var configsDeleteYes bool

func init() {
	configsDeleteCmd.Flags().BoolVarP(&configsDeleteYes, "yes", "y", false, "Do not ask for confirmation")

	configsCmd.AddCommand(configsListCmd)
	configsCmd.AddCommand(configsGetCmd)
	configsCmd.AddCommand(configsDeleteCmd)
}

func runConfigsList(cmd *cobra.Command, args []string) error {
	configs, err := store.ListConfigs(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list configurations: %w", err)
	}

	if len(configs) == 0 {
		fmt.Printf("%sNo configurations stored.%s\n", WarningStyle, Reset)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%sID\tNAME\tDB TYPE\tHOST\tDATABASE%s\n", LabelStyle, Reset)
	fmt.Fprintf(w, "%s──\t────\t───────\t────\t────────%s\n", DimStyle, Reset)

	for _, c := range configs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			FormatSecondary(c.ID()),
			FormatValue(truncate(stringField(c, "name"), 30)),
			FormatDim(stringField(c, "db_type")),
			FormatDim(stringField(c, "host_port")),
			FormatDim(stringField(c, "database")),
		)
	}

	w.Flush()
	fmt.Printf("\n%sTotal: %s configurations%s\n", InfoStyle, FormatCount(len(configs)), Reset)

	return nil
}

func runConfigsGet(cmd *cobra.Command, args []string) error {
	c, err := store.GetConfig(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get configuration: %w", err)
	}

	fmt.Printf("%sConfiguration Details%s\n", FormatHeader(""), Reset)
	fmt.Printf("%s=====================%s\n", DimStyle, Reset)
	fmt.Printf("%sID: %s\n", LabelStyle, FormatSecondary(c.ID()))

	for _, key := range c.Keys() {
		value := c[key]
		if key == "password" {
			value = maskSensitiveData(stringField(c, key), "*")
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			encoded = []byte(fmt.Sprint(value))
		}
		fmt.Printf("%s\n", FormatLabelValue(key+":", string(encoded)))
	}

	return nil
}

func runConfigsDelete(cmd *cobra.Command, args []string) error {
	id := args[0]

	if !configsDeleteYes {
		reader := bufio.NewReader(os.Stdin)
		confirmed, err := promptYesNo(reader, fmt.Sprintf("%sAre you sure you want to delete configuration %s? (y/N): %s", ErrorStyle, FormatValue(id), Reset))
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Printf("%sCancelled.%s\n", WarningStyle, Reset)
			return nil
		}
	}

	if err := store.DeleteConfig(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete configuration: %w", err)
	}

	fmt.Printf("%s✅ Configuration deleted successfully!%s\n", SuccessStyle, Reset)
	return nil
}

func stringField(c models.Configuration, key string) string {
	s, _ := c[key].(string)
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
