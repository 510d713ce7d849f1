package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/bryanchriswhite/ShotMark/internal/display"
	"github.com/bryanchriswhite/ShotMark/internal/history"
	"github.com/bryanchriswhite/ShotMark/internal/postcapture"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var resolutionCmd = &cobra.Command{
	Use:   "resolution",
	Short: "Show the resolution of the screen holding the pointer",
	RunE:  runResolution,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent screenshots",
	Example: `  # Show the ten most recent screenshots
  shotmark history --limit 10`,
	RunE: runHistory,
}

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List post-capture actions",
	Long: `List every post-capture action. Actions marked as enabled run after each
capture; change them with 'shotmark config set post_capture_actions ...'.`,
	RunE: runActions,
}

var (
	historyLimit  int
	historyFormat string
)

func init() {
	rootCmd.AddCommand(resolutionCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(actionsCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries (0 for all)")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "table", "output format (table or json)")
}

func runResolution(cmd *cobra.Command, args []string) error {
	mgr, err := loadConfig()
	if err != nil {
		return err
	}

	w, h, err := display.NewGateway(mgr.Get().Display).GetScreenResolution()
	if err != nil {
		return fmt.Errorf("failed to get screen resolution: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%dx%d\n", w, h)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	mgr, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := history.OpenSQLStore(mgr.Get().HistoryDatabase)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch historyFormat {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	case "table":
		renderHistory(out, entries)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", historyFormat)
	}
}

func renderHistory(out io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No screenshots yet")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Taken", "Path", "URL"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.Time.Local().Format("2006-01-02 15:04:05"), e.Path, e.URL})
	}
	t.Render()
}

func runActions(cmd *cobra.Command, args []string) error {
	mgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := mgr.Get()

	renderActions(cmd.OutOrStdout(), postcapture.DefaultRegistry(cfg.SavedScreenshotsPath), cfg.PostCaptureActions)
	return nil
}

func renderActions(out io.Writer, registry *postcapture.Registry, enabled []string) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Enabled", "Description"})
	for _, a := range registry.All() {
		mark := ""
		if slices.Contains(enabled, a.ID()) {
			mark = "✓"
		}
		t.AppendRow(table.Row{a.ID(), a.Name(), mark, a.Description()})
	}
	t.Render()
}
