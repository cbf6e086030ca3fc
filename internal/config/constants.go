// Package config provides configuration constants and user settings.
package config

import "time"

// =============================================================================
// Event Loop
// =============================================================================

const (
	// LoopTimeout bounds each wait of the event loop
	LoopTimeout = 20 * time.Millisecond

	// SuppressionHorizon is how long a request's side effects stay ignored
	SuppressionHorizon = 5 * time.Second
)

// =============================================================================
// IPC
// =============================================================================

const (
	// IPCReadTimeout is how long a worker waits for a peer to send its command
	IPCReadTimeout = 180 * time.Second

	// IPCClientTimeout bounds a whole round trip made by `r3 msg`
	IPCClientTimeout = 5 * time.Second

	// SocketDirName is the directory under the runtime dir holding sockets
	SocketDirName = "r3"

	// SocketFilePrefix is followed by the manager's pid
	SocketFilePrefix = "ipc-socket."

	// FallbackRuntimeDir is used when XDG_RUNTIME_DIR is unset
	FallbackRuntimeDir = "/tmp"
)

// =============================================================================
// Appearance Defaults
// =============================================================================

const (
	// DefaultBorderWidth is the frame border in pixels
	DefaultBorderWidth = 10

	// MaxBorderWidth is the widest border the config accepts
	MaxBorderWidth = 64

	// DefaultFrameBackground fills the frame behind the client
	DefaultFrameBackground = "#0000ff"

	// DefaultBorderColor is used for frames without focus
	DefaultBorderColor = "#aaaaaa"

	// DefaultFocusedBorderColor marks the focused frame
	DefaultFocusedBorderColor = "#ff0000"
)

// =============================================================================
// Files
// =============================================================================

const (
	// ConfigFile is the config location relative to the XDG config home
	ConfigFile = "r3/config.toml"

	// DefaultLogLevel is used when the config sets none
	DefaultLogLevel = "info"
)
