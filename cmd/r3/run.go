package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Gaurav-Gosain/r3/internal/app"
	"github.com/Gaurav-Gosain/r3/internal/config"
	"github.com/Gaurav-Gosain/r3/internal/ipc"
	"github.com/Gaurav-Gosain/r3/internal/logging"
	"github.com/Gaurav-Gosain/r3/internal/suppress"
	"github.com/Gaurav-Gosain/r3/internal/wm"
	"github.com/Gaurav-Gosain/r3/internal/xconn"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

// loadConfig reads the user config and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.UserConfig, error) {
	userConfig, err := config.LoadUserConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := config.Overrides{
		LogLevel:   logLevel,
		SocketPath: socketPath,
	}
	if cmd != nil && cmd.Flags().Changed("border-width") {
		overrides.BorderWidth = &borderWidth
	}
	if err := config.ApplyOverrides(overrides, userConfig); err != nil {
		return nil, err
	}
	return userConfig, nil
}

func runManager(ctx context.Context, cmd *cobra.Command) error {
	userConfig, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(userConfig.Daemon.LogLevel, os.Stderr)
	if err != nil {
		return err
	}
	colors, err := userConfig.Appearance.Colors()
	if err != nil {
		return err
	}
	configTOML, err := userConfig.Encode()
	if err != nil {
		return err
	}

	pid := os.Getpid()
	path := userConfig.Daemon.SocketPath
	if path == "" {
		dir := ipc.SocketDir()
		if removed := ipc.PruneStale(dir, logger); len(removed) > 0 {
			logger.Info("Removed stale sockets", "count", len(removed))
		}
		path = ipc.SocketPath(dir, pid)
	}

	xc, err := xconn.Dial(displayName, logger)
	if err != nil {
		return err
	}
	defer xc.Close()

	manager, err := wm.New(xc, wm.Options{
		Appearance: wm.Appearance{
			BorderWidth:   uint16(userConfig.Appearance.Width()),
			Background:    colors.Background,
			Border:        colors.Border,
			FocusedBorder: colors.FocusedBorder,
		},
		Logger:   logger,
		Suppress: suppress.New(suppress.WithHorizon(config.SuppressionHorizon)),
	})
	if err != nil {
		return err
	}
	if err := manager.Become(path, pid); err != nil {
		return err
	}

	queue := ipc.NewQueue()
	server, err := ipc.Listen(path, queue, ipc.Options{
		Version:     versionString(),
		Config:      configTOML,
		ReadTimeout: config.IPCReadTimeout,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	logger.Info("Listening for commands", "socket", path, "pid", pid)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, unix.SIGINT, unix.SIGTERM)
	defer signal.Stop(sigChan)

	loop := app.New(xc, manager, server, queue, app.Options{
		Signals: sigChan,
		Timeout: config.LoopTimeout,
		Logger:  logger,
	})
	if err := loop.Run(ctx); err != nil {
		logger.Error("Window manager stopped", "err", err)
		return err
	}
	logger.Info("Window manager stopped")
	return nil
}

func printConfigPath() error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	fmt.Println(path)
	return nil
}

func printConfig() error {
	userConfig, err := loadConfig(nil)
	if err != nil {
		return err
	}
	data, err := userConfig.Encode()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
