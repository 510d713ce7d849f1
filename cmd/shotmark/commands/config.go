package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/bryanchriswhite/ShotMark/internal/editor"
	"github.com/bryanchriswhite/ShotMark/internal/model"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ShotMark configuration",
	Long:  `View and manage ShotMark configuration settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current ShotMark configuration, environment overrides included.`,
	Example: `  # Show configuration as YAML (default)
  shotmark config show

  # Show configuration as JSON
  shotmark config show --format json`,
	RunE: runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Long:  `Set a specific configuration value and save it.`,
	Example: `  # Run two actions after every capture
  shotmark config set post_capture_actions save-to-disk,copy-path

  # Draw in red by default
  shotmark config set editor.primary_colour "#ff0000"

  # Set log level
  shotmark config set log_level debug`,
	Args: cobra.ExactArgs(2),
	// command line overrides would be saved with the file
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(false)
	},
	RunE: runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get a configuration value",
	Example: `  # Get the screenshot directory
  shotmark config get saved_screenshots_path`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every configuration key",
	Long:  `List every configuration key with its effective value, in the form 'config set' accepts.`,
	RunE:  runConfigList,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

var formatFlag string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configListCmd)

	configShowCmd.Flags().StringVarP(&formatFlag, "format", "f", "yaml", "output format (yaml or json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}

	cfg := configMgr.Get()
	out := cmd.OutOrStdout()

	switch formatFlag {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		return encoder.Encode(cfg)
	default:
		return fmt.Errorf("unsupported format: %s (use 'yaml' or 'json')", formatFlag)
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	configMgr, err := loadConfig()
	if err != nil {
		return err
	}

	if err := configMgr.Set(key, value); err != nil {
		return err
	}
	if err := configMgr.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Configuration updated: %s = %s\n", key, formatValue(key, configMgr.GetViper().Get(key)))
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	configMgr, err := loadConfig()
	if err != nil {
		return err
	}

	v := configMgr.GetViper()
	if !v.IsSet(key) {
		return fmt.Errorf("configuration key not found: %s", key)
	}

	fmt.Fprintln(cmd.OutOrStdout(), formatValue(key, v.Get(key)))
	return nil
}

func runConfigList(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}

	v := configMgr.GetViper()
	keys := v.AllKeys()
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Key", "Value"})
	for _, key := range keys {
		t.AppendRow(table.Row{key, formatValue(key, v.Get(key))})
	}
	t.Render()
	return nil
}

// formatValue prints a setting the way Set accepts it: lists comma
// separated, colours as #rrggbbaa, fonts normalized, sections as YAML
func formatValue(key string, value interface{}) string {
	switch val := value.(type) {
	case []string:
		return strings.Join(val, ",")
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ",")
	case map[string]interface{}:
		data, err := yaml.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return strings.TrimRight(string(data), "\n")
	}

	str := fmt.Sprint(value)
	switch {
	case strings.HasSuffix(key, "_colour"):
		if c, err := model.ParseColour(str); err == nil {
			return c.Hex()
		}
	case key == "editor.font":
		if d, err := editor.ParseFontDescription(str); err == nil {
			return d.String()
		}
	}
	return str
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), configMgr.GetConfigPath())
	return nil
}
