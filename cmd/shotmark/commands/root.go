package commands

import (
	"fmt"
	"os"

	"github.com/bryanchriswhite/ShotMark/internal/config"
	"github.com/bryanchriswhite/ShotMark/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	logLevelFlag string
	displayFlag  string

	rootCmd = &cobra.Command{
		Use:   "shotmark",
		Short: "ShotMark - Screenshot capture and annotation for X11",
		Long: `ShotMark captures the screen under the pointer, lets you annotate it
with lines, arrows, boxes, highlights, pixelation, blur, numbered bubbles
and text, then crops the result and hands it to post-capture actions.

Features:
  • Capture the monitor holding the pointer
  • List visible windows with frame-aware outer and content rectangles
  • Scripted annotation for unattended use
  • Save to PNG or PDF, copy to clipboard, desktop notifications
  • Screenshot history in a local database`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(true)
		},
	}

	// cfgMgr is loaded once per invocation by setup
	cfgMgr *config.Manager
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/shotmark/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&displayFlag, "display", "", "X display to use (default is $DISPLAY)")
}

// setup loads the configuration and initializes logging. With overrides
// set, --log-level and --display replace the file values in memory only.
func setup(overrides bool) error {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := mgr.GetLogLevel()
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	if overrides {
		v := mgr.GetViper()
		if logLevelFlag != "" {
			v.Set("log_level", logLevelFlag)
		}
		if displayFlag != "" {
			v.Set("display", displayFlag)
		}
	}

	logger.Init(level, logger.IsTerminal())
	cfgMgr = mgr
	return nil
}

// loadConfig returns the configuration loaded by setup
func loadConfig() (*config.Manager, error) {
	if cfgMgr == nil {
		if err := setup(true); err != nil {
			return nil, err
		}
	}
	return cfgMgr, nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
