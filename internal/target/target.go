// Package target decides whether a window belongs to the monitored
// application.
//
// Matching is by owning-process image name first, window-title substring as
// a fallback. Both checks are best-effort queries: a window that vanished
// between ticks simply stops matching.
package target

import (
	"log/slog"
	"strings"

	"clipd/internal/winapi"
)

// Query is the subset of the desktop boundary the matcher needs.
type Query interface {
	IsWindow(winapi.HWND) bool
	ProcessImageName(winapi.HWND) (string, error)
	WindowText(winapi.HWND) string
}

// Config selects the application to match.
type Config struct {
	// ProcessName is the executable image name compared case-insensitively.
	ProcessName string

	// TitleContains is the fallback title substring used when the process
	// name is unavailable or does not match.
	TitleContains string
}

// DefaultConfig matches Minecraft Bedrock.
func DefaultConfig() Config {
	return Config{
		ProcessName:   "Minecraft.Windows.exe",
		TitleContains: "Minecraft",
	}
}

// Matcher answers whether a window handle belongs to the target application.
type Matcher struct {
	query  Query
	cfg    Config
	logger *slog.Logger
}

// NewMatcher creates a matcher over the given desktop query.
func NewMatcher(query Query, cfg Config, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{
		query:  query,
		cfg:    cfg,
		logger: logger.With("component", "target"),
	}
}

// IsTarget reports whether h belongs to the monitored application. Pure
// query: no side effects, tolerant of handles destroyed mid-check.
func (m *Matcher) IsTarget(h winapi.HWND) bool {
	if h == 0 || !m.query.IsWindow(h) {
		return false
	}

	if name, err := m.query.ProcessImageName(h); err == nil && name != "" {
		if strings.EqualFold(name, m.cfg.ProcessName) {
			return true
		}
	} else if err != nil {
		// Unknown process is not fatal; fall through to the title check.
		m.logger.Debug("process name unavailable", "hwnd", uint64(h), "error", err)
	}

	if m.cfg.TitleContains == "" {
		return false
	}
	return strings.Contains(m.query.WindowText(h), m.cfg.TitleContains)
}
