// Package main implements r3, a minimal reparenting X11 window manager.
// Every top-level window is wrapped in a bordered frame that can be moved
// with the primary button and resized with the secondary one, and a small
// unix socket protocol lets scripts close windows or stop the manager.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// Global flags
var (
	displayName string
	logLevel    string
	socketPath  string
	borderWidth int
)

func versionString() string {
	return fmt.Sprintf("r3 %s (%s)", version, commit)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "r3",
		Short: "A minimal X11 window manager",
		Long: `r3 - a minimal X11 window manager

r3 frames every top-level window, focuses windows as the pointer enters
them, moves frames with button 1 and resizes them with button 3. A running
manager accepts commands over a unix socket; see "r3 msg".`,
		Example: `  # Run on $DISPLAY
  r3

  # Run on another display with debug logging
  r3 --display :1 --log-level debug

  # Close the focused window
  r3 msg close-window

  # Stop the manager
  r3 msg exit`,
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runManager(cmd.Context(), cmd)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&displayName, "display", "", "X display to manage (default: $DISPLAY)")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "IPC socket path (default: from config or $XDG_RUNTIME_DIR/r3/ipc-socket.<pid>)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: from config or info)")
	rootCmd.Flags().IntVar(&borderWidth, "border-width", 0, "Frame border width in pixels, 0 to 64 (default: from config or 10)")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage r3 configuration",
		Long:  `Manage the r3 configuration file and settings`,
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		Long:  `Print the path to the r3 configuration file`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return printConfigPath()
		},
	}

	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration r3 would start with, defaults included

A configuration file is created with defaults if none exists yet.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return printConfig()
		},
	}

	configCmd.AddCommand(configPathCmd, configShowCmd)

	rootCmd.AddCommand(configCmd, newMsgCmd())

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s\nBy: %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}
