package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Gaurav-Gosain/r3/internal/config"
	"github.com/Gaurav-Gosain/r3/internal/ipc"
	"github.com/Gaurav-Gosain/r3/internal/xconn"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newMsgCmd() *cobra.Command {
	msgCmd := &cobra.Command{
		Use:   "msg",
		Short: "Send a command to the running window manager",
		Long: `Send a command to the running window manager

The socket is taken from --socket, or read from the R3_SOCKET_PATH property
on the root window of --display.`,
	}

	subcommands := []struct {
		use   string
		short string
		cmd   ipc.Command
	}{
		{"close-window", "Close the focused window", ipc.CmdCloseWindow},
		{"exit", "Stop the window manager", ipc.CmdExit},
		{"get-version", "Print the version of the running manager", ipc.CmdGetVersion},
		{"get-config", "Print the configuration of the running manager", ipc.CmdGetConfig},
	}
	for _, sc := range subcommands {
		msgCmd.AddCommand(&cobra.Command{
			Use:   sc.use,
			Short: sc.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return sendCommand(cmd.Context(), sc.cmd)
			},
		})
	}
	return msgCmd
}

// resolveSocket finds the socket of the manager running on displayName.
func resolveSocket() (string, error) {
	if socketPath != "" {
		return socketPath, nil
	}
	pub, err := xconn.Discover(displayName)
	if err != nil {
		return "", fmt.Errorf("no --socket given: %w", err)
	}
	if pub.SocketPath == "" {
		return "", errors.New("the window manager published an empty socket path")
	}
	if pub.PID > 0 && !ipc.PIDAlive(pub.PID) {
		return "", fmt.Errorf("the window manager that published %s (pid %d) is not running", pub.SocketPath, pub.PID)
	}
	return pub.SocketPath, nil
}

func sendCommand(ctx context.Context, cmd ipc.Command) error {
	path, err := resolveSocket()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, config.IPCClientTimeout)
	defer cancel()
	reply, err := ipc.Send(ctx, path, cmd)
	if err != nil {
		return err
	}
	if msg, ok := strings.CutPrefix(reply, "error: "); ok {
		return fmt.Errorf("window manager rejected %v: %s", cmd, msg)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		// Scripts get the reply untouched.
		_, err := os.Stdout.WriteString(reply)
		return err
	}
	if cmd.IsQuery() {
		fmt.Println(strings.TrimRight(reply, "\n"))
	} else {
		fmt.Printf("%v: %s\n", cmd, reply)
	}
	return nil
}
