package xconn

import (
	"fmt"
	"strconv"

	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xprop"
)

// Published is what a running manager leaves on the root window.
type Published struct {
	PID        int
	SocketPath string
}

// Discover reads the manager's pid and socket path off the root window of
// display. It opens its own short-lived connection.
func Discover(display string) (Published, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return Published{}, fmt.Errorf("failed to connect to X server: %w", err)
	}
	defer xu.Conn().Close()

	root := xu.RootWin()
	path, err := xprop.PropValStr(xprop.GetProperty(xu, root, AtomSocketPath))
	if err != nil {
		return Published{}, fmt.Errorf("no window manager socket published on root: %w", err)
	}

	pub := Published{SocketPath: path}
	if raw, err := xprop.PropValStr(xprop.GetProperty(xu, root, AtomPID)); err == nil {
		if pid, err := strconv.Atoi(raw); err == nil {
			pub.PID = pid
		}
	}
	return pub, nil
}
