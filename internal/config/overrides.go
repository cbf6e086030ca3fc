package config

import "fmt"

// Overrides contains CLI flag values that can override user config.
// Zero values indicate the flag was not set and should use the user config default.
type Overrides struct {
	// BorderWidth overrides the frame border width (nil means unset)
	BorderWidth *int

	// LogLevel overrides the daemon log level
	LogLevel string

	// SocketPath overrides where the IPC socket is created
	SocketPath string
}

// ApplyOverrides applies CLI flag overrides on top of the user config and
// validates the result.
func ApplyOverrides(overrides Overrides, userConfig *UserConfig) error {
	if overrides.BorderWidth != nil {
		width := *overrides.BorderWidth
		userConfig.Appearance.BorderWidth = &width
	}
	if overrides.LogLevel != "" {
		userConfig.Daemon.LogLevel = overrides.LogLevel
	}
	if overrides.SocketPath != "" {
		userConfig.Daemon.SocketPath = overrides.SocketPath
	}

	if validation := ValidateConfig(userConfig); validation.HasErrors() {
		first := validation.Errors[0]
		return fmt.Errorf("invalid flag for [%s] %s: %s", first.Field, first.Key, first.Message)
	}
	return nil
}
