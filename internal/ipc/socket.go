package ipc

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Gaurav-Gosain/r3/internal/config"
	"github.com/charmbracelet/log"
	"github.com/shirou/gopsutil/v4/process"
)

// SocketDir is $XDG_RUNTIME_DIR/r3, or /tmp/r3 when the variable is unset.
func SocketDir() string {
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = config.FallbackRuntimeDir
	}
	return filepath.Join(base, config.SocketDirName)
}

// SocketPath names the socket of the manager with the given pid.
func SocketPath(dir string, pid int) string {
	return filepath.Join(dir, config.SocketFilePrefix+strconv.Itoa(pid))
}

// socketPID extracts the pid from a socket file name.
func socketPID(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, config.SocketFilePrefix)
	if !ok {
		return 0, false
	}
	pid, err := strconv.Atoi(rest)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// PruneStale removes sockets in dir left behind by managers that are no
// longer running. It returns the paths it removed.
func PruneStale(dir string, logger *log.Logger) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var removed []string
	for _, e := range entries {
		pid, ok := socketPID(e.Name())
		if !ok || pid == os.Getpid() {
			continue
		}
		alive, err := process.PidExists(int32(pid))
		if err != nil || alive {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("Failed to remove stale socket", "path", path, "err", err)
			continue
		}
		logger.Debug("Removed stale socket", "path", path, "pid", pid)
		removed = append(removed, path)
	}
	return removed
}

// PIDAlive reports whether pid names a running process.
func PIDAlive(pid int) bool {
	alive, err := process.PidExists(int32(pid))
	return err == nil && alive
}
