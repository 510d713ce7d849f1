package commands

import (
	"fmt"
	"image"
	"strings"

	"github.com/bryanchriswhite/ShotMark/internal/config"
	"github.com/bryanchriswhite/ShotMark/internal/display"
	"github.com/bryanchriswhite/ShotMark/internal/editor"
	"github.com/bryanchriswhite/ShotMark/internal/history"
	"github.com/bryanchriswhite/ShotMark/internal/logger"
	"github.com/bryanchriswhite/ShotMark/internal/postcapture"
	"github.com/bryanchriswhite/ShotMark/internal/preview"
	"github.com/bryanchriswhite/ShotMark/internal/script"
	"github.com/spf13/cobra"
)

// historyPreload is how many past entries the in-memory model starts with
const historyPreload = 50

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Take and annotate a screenshot",
	Long: `Capture the screen that holds the pointer, replay an optional annotation
script over it, and run the post-capture actions on the cropped result.

Without a script, or when the script never crops, the whole screen is kept.`,
	Example: `  # Capture the screen and run the configured actions
  shotmark capture

  # Annotate with a script and copy the result to the clipboard
  shotmark capture --script annotate.yaml --actions copy-to-clipboard

  # Watch the script play in a preview window
  shotmark capture --script annotate.yaml --preview`,
	RunE: runCapture,
}

var (
	captureScript  string
	captureActions string
	capturePreview bool
	captureTool    string
)

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().StringVarP(&captureScript, "script", "s", "", "annotation script (YAML)")
	captureCmd.Flags().StringVarP(&captureActions, "actions", "a", "", "comma separated post-capture actions (default from config)")
	captureCmd.Flags().BoolVarP(&capturePreview, "preview", "p", false, "show the annotation in a preview window")
	captureCmd.Flags().StringVarP(&captureTool, "tool", "t", "", "initial editor tool")
}

func runCapture(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("capture")

	mgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := mgr.Get()

	stack, err := newStack(cfg.Editor, captureTool)
	if err != nil {
		return err
	}

	// load the script before grabbing the screen so a typo fails fast
	var sc *script.Script
	if captureScript != "" {
		if sc, err = script.Load(captureScript); err != nil {
			return err
		}
	}

	gateway := display.NewGateway(cfg.Display)
	base, err := gateway.TakeScreenshot()
	if err != nil {
		return fmt.Errorf("failed to take screenshot: %w", err)
	}

	store, err := history.OpenSQLStore(cfg.HistoryDatabase)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	entries := history.NewModel()
	if err := entries.Load(store, historyPreload); err != nil {
		log.Warn().Err(err).Msg("Failed to load history")
	}
	entries.Subscribe(func(e history.Entry) {
		fmt.Fprintln(cmd.OutOrStdout(), e.Path)
	})

	finalizer := &editor.Finalizer{
		Screen:   gateway,
		Fallback: cfg.FallbackResolution.Point(),
		Registry: postcapture.DefaultRegistry(cfg.SavedScreenshotsPath),
		Actions:  resolveActions(captureActions, cfg.PostCaptureActions),
		Env:      postcapture.Env{History: entries, Store: store},
	}
	session := editor.NewSession(base, stack, finalizer)

	if capturePreview {
		win := preview.NewWindow(cfg.Display, image.Point{})
		if err := win.Start(base.Bounds().Size()); err != nil {
			log.Warn().Err(err).Msg("Preview unavailable")
		} else {
			defer win.Stop()
			session.OnRedraw(win.Show)
			win.Show(base)
		}
	}

	if sc != nil {
		if err := sc.Play(session); err != nil {
			return fmt.Errorf("failed to play script: %w", err)
		}
	}

	result, err := session.Finish()
	if err != nil {
		return err
	}

	log.Info().
		Int("width", result.Bounds().Dx()).
		Int("height", result.Bounds().Dy()).
		Int("operations", len(stack.Operations())).
		Msg("Capture complete")
	return nil
}

// newStack builds an operation stack from the editor configuration
func newStack(cfg config.EditorConfig, tool string) (*editor.OperationStack, error) {
	settings, primary, secondary, err := cfg.Settings()
	if err != nil {
		return nil, fmt.Errorf("invalid editor config: %w", err)
	}

	stack := editor.NewOperationStackWithSettings(settings)
	stack.SetPrimaryColour(primary)
	stack.SetSecondaryColour(secondary)

	if tool != "" {
		t, err := editor.ParseTool(tool)
		if err != nil {
			return nil, err
		}
		stack.SetCurrentTool(t)
	}
	return stack, nil
}

// resolveActions prefers the comma separated flag over the configured list
func resolveActions(flag string, configured []string) []string {
	if strings.TrimSpace(flag) == "" {
		return configured
	}
	var ids []string
	for _, id := range strings.Split(flag, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
