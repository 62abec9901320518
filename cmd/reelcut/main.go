// Command reelcut plays a barber video feed in the terminal and maintains
// its local catalogue.
//
// Usage:
//
//	reelcut play              Vertically paged feed (TUI)
//	reelcut seed <file>...    Import JSON item files into the catalogue
//	reelcut page [index]      Print one page from the configured source
//	reelcut events            JSONL event log viewer
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/abelbrown/reelcut/internal/config"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loader resolves the configuration for a subcommand.
type loader func() (*config.Config, error)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "reelcut",
		Short:         "Barber video feed player",
		Long:          "reelcut plays a vertically paged feed of barber cuts with single-active playback.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetVersionTemplate("reelcut version {{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.reelcut/config.json)")

	load := func() (*config.Config, error) {
		if configPath == "" {
			return config.Load()
		}
		return config.LoadFrom(configPath)
	}

	root.AddCommand(newPlayCmd(load))
	root.AddCommand(newSeedCmd(load))
	root.AddCommand(newPageCmd(load))
	root.AddCommand(newEventsCmd(load))
	return root
}
