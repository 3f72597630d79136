// Package config handles configuration loading, validation, and management
// for clipd.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete daemon configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Poll configures the confinement poll loop.
	Poll PollConfig `toml:"poll" json:"poll" yaml:"poll"`

	// Target selects the monitored application.
	Target TargetConfig `toml:"target" json:"target" yaml:"target"`

	// Confine configures the confinement state machine and geometry.
	Confine ConfineConfig `toml:"confine" json:"confine" yaml:"confine"`

	// Recenter configures the trigger-key pointer recentering.
	Recenter RecenterConfig `toml:"recenter" json:"recenter" yaml:"recenter"`

	// IPC configures the control socket/pipe.
	IPC IPCConfig `toml:"ipc" json:"ipc" yaml:"ipc"`

	// Logging configures structured log output.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// PollConfig configures the poll loop cadence.
type PollConfig struct {
	// IntervalMs is the tick period in milliseconds.
	IntervalMs int `toml:"interval_ms" json:"interval_ms" yaml:"interval_ms"`
}

// Interval returns the tick period as a duration.
func (p PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalMs) * time.Millisecond
}

// TargetConfig selects the monitored application.
type TargetConfig struct {
	// ProcessName is the executable image name, compared case-insensitively.
	ProcessName string `toml:"process_name" json:"process_name" yaml:"process_name"`

	// TitleContains is the fallback window-title substring.
	TitleContains string `toml:"title_contains" json:"title_contains" yaml:"title_contains"`
}

// ConfineConfig configures geometry resolution and the state machine.
type ConfineConfig struct {
	// Mode is "fullscreen" (confine to monitor bounds when the window truly
	// covers its monitor) or "client" (confine to the client area).
	Mode string `toml:"mode" json:"mode" yaml:"mode"`

	// CompareTolerance is the per-edge slack, in pixels, when deciding
	// whether a resolved region differs from the applied one.
	CompareTolerance int32 `toml:"compare_tolerance" json:"compare_tolerance" yaml:"compare_tolerance"`

	// RequireVisible gates confinement on the occlusion heuristic.
	RequireVisible bool `toml:"require_visible" json:"require_visible" yaml:"require_visible"`

	// FullscreenEdgeTolerance is the per-edge slack, in pixels, when
	// comparing window bounds to monitor bounds in fullscreen mode.
	FullscreenEdgeTolerance int32 `toml:"fullscreen_edge_tolerance" json:"fullscreen_edge_tolerance" yaml:"fullscreen_edge_tolerance"`

	// FullscreenMinCoverage treats the window as fullscreen at or above
	// this fraction of monitor area.
	FullscreenMinCoverage float64 `toml:"fullscreen_min_coverage" json:"fullscreen_min_coverage" yaml:"fullscreen_min_coverage"`

	// ClientPlausibilitySlack is how far, in pixels, translated client
	// corners may fall outside the window bounds before being rejected.
	ClientPlausibilitySlack int32 `toml:"client_plausibility_slack" json:"client_plausibility_slack" yaml:"client_plausibility_slack"`

	// TranslateRetries bounds coordinate-translation attempts.
	TranslateRetries int `toml:"translate_retries" json:"translate_retries" yaml:"translate_retries"`

	// TranslateRetryPauseMs is the pause between translation attempts.
	TranslateRetryPauseMs int `toml:"translate_retry_pause_ms" json:"translate_retry_pause_ms" yaml:"translate_retry_pause_ms"`

	// VisibilityGridSize is the edge length of the occlusion sample grid.
	VisibilityGridSize int `toml:"visibility_grid_size" json:"visibility_grid_size" yaml:"visibility_grid_size"`

	// VisibilityMinFraction is the fraction of sample points that must
	// belong to the target for it to count as visible.
	VisibilityMinFraction float64 `toml:"visibility_min_fraction" json:"visibility_min_fraction" yaml:"visibility_min_fraction"`
}

// TranslateRetryPause returns the retry pause as a duration.
func (c ConfineConfig) TranslateRetryPause() time.Duration {
	return time.Duration(c.TranslateRetryPauseMs) * time.Millisecond
}

// RecenterConfig configures the trigger-key listener.
type RecenterConfig struct {
	// Enabled installs the system keyboard listener.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// KeyFile is the single-line file naming the trigger key. Created with
	// a default when absent. Empty means <config dir>/recenter_key.txt.
	KeyFile string `toml:"key_file" json:"key_file" yaml:"key_file"`
}

// IPCConfig configures the control surface.
type IPCConfig struct {
	// Enabled starts the control listener.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Endpoint is the named pipe (Windows) or unix socket path. Empty
	// means the platform default.
	Endpoint string `toml:"endpoint" json:"endpoint" yaml:"endpoint"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `toml:"level" json:"level" yaml:"level"`
	Format string `toml:"format" json:"format" yaml:"format"`
	Output string `toml:"output" json:"output" yaml:"output"`
	File   string `toml:"file" json:"file" yaml:"file"`
}

// DefaultConfig returns the configuration used when no file exists. The
// geometry tolerances are observed values from the tool this daemon grew
// out of, surfaced as tunables.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Poll: PollConfig{
			IntervalMs: 10,
		},
		Target: TargetConfig{
			ProcessName:   "Minecraft.Windows.exe",
			TitleContains: "Minecraft",
		},
		Confine: ConfineConfig{
			Mode:                    "fullscreen",
			CompareTolerance:        2,
			RequireVisible:          false,
			FullscreenEdgeTolerance: 8,
			FullscreenMinCoverage:   0.90,
			ClientPlausibilitySlack: 10,
			TranslateRetries:        3,
			TranslateRetryPauseMs:   5,
			VisibilityGridSize:      5,
			VisibilityMinFraction:   0.90,
		},
		Recenter: RecenterConfig{
			Enabled: true,
			KeyFile: filepath.Join(PlatformConfigDir(), "recenter_key.txt"),
		},
		IPC: IPCConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
//   - Windows: %APPDATA%\clipd\
//   - macOS:   ~/Library/Application Support/clipd/
//   - Linux:   ~/.config/clipd/
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "clipd")
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Application Support", "clipd")
		}
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "clipd")
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".config", "clipd")
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".clipd")
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// ApplyEnvOverrides applies environment variable overrides. Variables are
// prefixed with CLIPD_ and use underscores.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CLIPD_TARGET_PROCESS"); v != "" {
		c.Target.ProcessName = v
	}
	if v := os.Getenv("CLIPD_TARGET_TITLE"); v != "" {
		c.Target.TitleContains = v
	}
	if v := os.Getenv("CLIPD_MODE"); v != "" {
		c.Confine.Mode = v
	}
	if v := os.Getenv("CLIPD_POLL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Poll.IntervalMs = n
		}
	}
	if v := os.Getenv("CLIPD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CLIPD_IPC_ENDPOINT"); v != "" {
		c.IPC.Endpoint = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the directories the daemon writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		PlatformConfigDir(),
	}
	if c.Recenter.KeyFile != "" {
		dirs = append(dirs, filepath.Dir(c.Recenter.KeyFile))
	}
	if c.Logging.File != "" {
		dirs = append(dirs, filepath.Dir(c.Logging.File))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
