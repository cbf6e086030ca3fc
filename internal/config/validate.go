package config

import (
	"fmt"
	"path/filepath"
)

// ValidationIssue is one problem found in a config.
type ValidationIssue struct {
	Field   string // config section
	Key     string
	Message string
}

// ValidationResult collects the errors and warnings of a config check.
type ValidationResult struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// HasErrors reports whether any error was found.
func (v *ValidationResult) HasErrors() bool { return len(v.Errors) > 0 }

// HasWarnings reports whether any warning was found.
func (v *ValidationResult) HasWarnings() bool { return len(v.Warnings) > 0 }

func (v *ValidationResult) addError(field, key, format string, args ...any) {
	v.Errors = append(v.Errors, ValidationIssue{Field: field, Key: key, Message: fmt.Sprintf(format, args...)})
}

func (v *ValidationResult) addWarning(field, key, format string, args ...any) {
	v.Warnings = append(v.Warnings, ValidationIssue{Field: field, Key: key, Message: fmt.Sprintf(format, args...)})
}

// ValidateConfig checks value ranges and formats.
func ValidateConfig(cfg *UserConfig) *ValidationResult {
	v := &ValidationResult{}

	if w := cfg.Appearance.Width(); w < 0 || w > MaxBorderWidth {
		v.addError("appearance", "border_width", "must be between 0 and %d, got %d", MaxBorderWidth, w)
	}
	colors := []struct {
		key, value string
	}{
		{"frame_background", cfg.Appearance.FrameBackground},
		{"border_color", cfg.Appearance.BorderColor},
		{"focused_border_color", cfg.Appearance.FocusedBorderColor},
	}
	for _, c := range colors {
		if _, err := ParseColor(c.value); err != nil {
			v.addError("appearance", c.key, "%v", err)
		}
	}
	if cfg.Appearance.BorderColor == cfg.Appearance.FocusedBorderColor {
		v.addWarning("appearance", "focused_border_color", "same as border_color, focus will not be visible")
	}

	if _, err := cfg.Daemon.Level(); err != nil {
		v.addError("daemon", "log_level", "unknown level %q", cfg.Daemon.LogLevel)
	}
	if p := cfg.Daemon.SocketPath; p != "" && !filepath.IsAbs(p) {
		v.addWarning("daemon", "socket_path", "relative path %q depends on the working directory", p)
	}

	return v
}
