package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"
)

// UserConfig represents the user's custom configuration
type UserConfig struct {
	Appearance AppearanceConfig `toml:"appearance"`
	Daemon     DaemonConfig     `toml:"daemon"`
}

// AppearanceConfig holds frame decoration settings
type AppearanceConfig struct {
	BorderWidth        *int   `toml:"border_width"`         // Frame border in pixels, 0 to 64 (default: 10)
	FrameBackground    string `toml:"frame_background"`     // Frame fill color (default: #0000ff)
	BorderColor        string `toml:"border_color"`         // Border of unfocused frames (default: #aaaaaa)
	FocusedBorderColor string `toml:"focused_border_color"` // Border of the focused frame (default: #ff0000)
}

// DaemonConfig holds manager process settings
type DaemonConfig struct {
	LogLevel   string `toml:"log_level"`   // debug, info, warn, error (default: info)
	SocketPath string `toml:"socket_path"` // Custom socket path (default: $XDG_RUNTIME_DIR/r3/ipc-socket.<pid>)
}

// Colors are the decoration colors as 24-bit pixel values.
type Colors struct {
	Background    uint32
	Border        uint32
	FocusedBorder uint32
}

// DefaultConfig returns the default configuration
func DefaultConfig() *UserConfig {
	width := DefaultBorderWidth
	return &UserConfig{
		Appearance: AppearanceConfig{
			BorderWidth:        &width,
			FrameBackground:    DefaultFrameBackground,
			BorderColor:        DefaultBorderColor,
			FocusedBorderColor: DefaultFocusedBorderColor,
		},
		Daemon: DaemonConfig{
			LogLevel: DefaultLogLevel,
		},
	}
}

// Width returns the border width, or the default when unset.
func (a AppearanceConfig) Width() int {
	if a.BorderWidth == nil {
		return DefaultBorderWidth
	}
	return *a.BorderWidth
}

// Colors parses the configured colors.
func (a AppearanceConfig) Colors() (Colors, error) {
	var c Colors
	var err error
	if c.Background, err = ParseColor(a.FrameBackground); err != nil {
		return Colors{}, fmt.Errorf("frame_background: %w", err)
	}
	if c.Border, err = ParseColor(a.BorderColor); err != nil {
		return Colors{}, fmt.Errorf("border_color: %w", err)
	}
	if c.FocusedBorder, err = ParseColor(a.FocusedBorderColor); err != nil {
		return Colors{}, fmt.Errorf("focused_border_color: %w", err)
	}
	return c, nil
}

// ParseColor converts a hex color like "#ff0000" into a TrueColor pixel.
func ParseColor(s string) (uint32, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b), nil
}

// Level parses the configured log level.
func (d DaemonConfig) Level() (log.Level, error) {
	return log.ParseLevel(d.LogLevel)
}

// Encode serializes the config as TOML.
func (c *UserConfig) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// LoadUserConfig loads the user configuration from XDG config directory
func LoadUserConfig() (*UserConfig, error) {
	configPath, err := xdg.SearchConfigFile(ConfigFile)
	if err != nil {
		// Config doesn't exist, create default
		return createDefaultConfig()
	}
	return LoadFile(configPath)
}

// LoadFile reads, completes and validates the config at path.
func LoadFile(path string) (*UserConfig, error) {
	// #nosec G304 - path is from XDG search or the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg UserConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	defaultCfg := DefaultConfig()
	fillMissingAppearance(&cfg, defaultCfg)
	fillMissingDaemon(&cfg, defaultCfg)

	validation := ValidateConfig(&cfg)
	if validation.HasErrors() {
		for _, err := range validation.Errors {
			fmt.Fprintf(os.Stderr, "Config error in [%s]: %s - %s\n", err.Field, err.Key, err.Message)
		}
		return nil, fmt.Errorf("configuration has %d error(s), please fix and restart", len(validation.Errors))
	}
	for _, warn := range validation.Warnings {
		log.Warn("Config warning", "section", warn.Field, "key", warn.Key, "msg", warn.Message)
	}

	return &cfg, nil
}

// createDefaultConfig creates a default config file in the user's config directory
func createDefaultConfig() (*UserConfig, error) {
	cfg := DefaultConfig()

	configPath, err := xdg.ConfigFile(ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := cfg.Encode()
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("# r3 Configuration File\n")
	sb.WriteString("#\n")
	sb.WriteString("# Configuration location: " + configPath + "\n\n")

	sb.WriteString("# ============================================================================\n")
	sb.WriteString("# APPEARANCE SETTINGS\n")
	sb.WriteString("# ============================================================================\n")
	sb.WriteString("# border_width: Frame border in pixels\n")
	sb.WriteString("#   Range: 0 to 64\n")
	sb.WriteString("#   Default: 10\n")
	sb.WriteString("#\n")
	sb.WriteString("# frame_background, border_color, focused_border_color: hex colors\n")
	sb.WriteString("#   Example: \"#ff0000\"\n")
	sb.WriteString("#\n")
	sb.WriteString("# ============================================================================\n")
	sb.WriteString("# DAEMON SETTINGS\n")
	sb.WriteString("# ============================================================================\n")
	sb.WriteString("# log_level: debug, info, warn, error\n")
	sb.WriteString("#   Default: info\n")
	sb.WriteString("#\n")
	sb.WriteString("# socket_path: IPC socket location\n")
	sb.WriteString("#   Default: (empty - $XDG_RUNTIME_DIR/r3/ipc-socket.<pid>)\n")
	sb.WriteString("# ============================================================================\n\n")

	sb.Write(data)

	if err := os.WriteFile(configPath, []byte(sb.String()), 0600); err != nil {
		return nil, fmt.Errorf("failed to write config file: %w", err)
	}

	return cfg, nil
}

// fillMissingAppearance fills in any missing appearance settings with defaults
func fillMissingAppearance(cfg, defaultCfg *UserConfig) {
	if cfg.Appearance.BorderWidth == nil {
		width := *defaultCfg.Appearance.BorderWidth
		cfg.Appearance.BorderWidth = &width
	}
	if cfg.Appearance.FrameBackground == "" {
		cfg.Appearance.FrameBackground = defaultCfg.Appearance.FrameBackground
	}
	if cfg.Appearance.BorderColor == "" {
		cfg.Appearance.BorderColor = defaultCfg.Appearance.BorderColor
	}
	if cfg.Appearance.FocusedBorderColor == "" {
		cfg.Appearance.FocusedBorderColor = defaultCfg.Appearance.FocusedBorderColor
	}
}

// fillMissingDaemon fills in any missing daemon settings with defaults
func fillMissingDaemon(cfg, defaultCfg *UserConfig) {
	if cfg.Daemon.LogLevel == "" {
		cfg.Daemon.LogLevel = defaultCfg.Daemon.LogLevel
	}
	// SocketPath defaults to empty (use the runtime dir), so we don't override it
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	path, err := xdg.SearchConfigFile(ConfigFile)
	if err != nil {
		// Return where it would be created
		return xdg.ConfigFile(ConfigFile)
	}
	return path, nil
}
