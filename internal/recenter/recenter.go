// Package recenter repositions the pointer to the target window's center
// when a trigger key is observed.
//
// The listener is a non-consuming system-wide keyboard tap: every key-down
// is inspected, the triggering event is always passed through to its
// original destination, and the only side effect ever taken is moving the
// pointer. All decision logic lives in Decider so it stays synchronously
// testable and the OS callback stays trivially fast.
package recenter

import (
	"errors"
	"log/slog"

	"clipd/internal/keybind"
	"clipd/internal/region"
	"clipd/internal/winapi"
)

// VK_ESCAPE always recenters alongside the configured trigger.
const vkEscape = 0x1B

// ErrNotSupported is returned when the keyboard tap cannot be installed on
// this platform.
var ErrNotSupported = errors.New("recenter: keyboard listener requires windows")

// Matcher reports whether a window belongs to the monitored application.
type Matcher interface {
	IsTarget(winapi.HWND) bool
}

// Validator optionally gates recentering on actual visibility.
type Validator interface {
	IsActuallyVisible(winapi.HWND) bool
}

// Metrics supplies the window bounds to center on.
type Metrics interface {
	WindowRect(winapi.HWND) (region.Rect, error)
}

// Decider holds the side-effect-free recenter decision.
type Decider struct {
	matcher   Matcher
	validator Validator // may be nil
	metrics   Metrics
	trigger   keybind.Binding
}

// NewDecider creates the decision logic. validator may be nil when
// visibility gating is disabled.
func NewDecider(matcher Matcher, validator Validator, metrics Metrics, trigger keybind.Binding) *Decider {
	return &Decider{
		matcher:   matcher,
		validator: validator,
		metrics:   metrics,
		trigger:   trigger,
	}
}

// Target returns the point to move the pointer to for a key-down of vk
// while fg is the foreground window, and whether to move at all. O(1) OS
// queries only; called from the hook callback's timeout budget.
func (d *Decider) Target(vk uint32, fg winapi.HWND) (region.Point, bool) {
	if vk != d.trigger.VK && vk != vkEscape {
		return region.Point{}, false
	}
	if fg == 0 || !d.matcher.IsTarget(fg) {
		return region.Point{}, false
	}
	if d.validator != nil && !d.validator.IsActuallyVisible(fg) {
		return region.Point{}, false
	}

	rc, err := d.metrics.WindowRect(fg)
	if err != nil || !rc.Valid() {
		return region.Point{}, false
	}
	return rc.Center(), true
}

// Pointer is the stateless reposition primitive plus the foreground query
// the callback needs.
type Pointer interface {
	ForegroundWindow() winapi.HWND
	SetCursorPos(region.Point) error
}

func componentLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", "recenter")
}
