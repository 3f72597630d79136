// Package visibility decides whether the target window is not merely
// focused but actually unobstructed and receiving input.
//
// The occlusion check is a heuristic point sample, not exact z-order math.
// It errs toward "not visible": releasing the pointer from a window that is
// barely covered is harmless, clipping the pointer to a window that is truly
// obscured is not.
package visibility

import (
	"log/slog"

	"clipd/internal/region"
	"clipd/internal/winapi"
)

// Probe is the subset of the desktop boundary the validator needs.
type Probe interface {
	ForegroundWindow() winapi.HWND
	IsMinimized(winapi.HWND) bool
	WindowRect(winapi.HWND) (region.Rect, error)
	WindowFromPoint(region.Point) winapi.HWND
	RootAncestor(winapi.HWND) winapi.HWND
	CaptureWindow() winapi.HWND
}

// Config holds the sampling tunables.
type Config struct {
	// GridSize is the edge length of the interior sample grid.
	GridSize int

	// MinVisibleFraction is the fraction of sampled points that must
	// resolve to the window's own top-level ancestor.
	MinVisibleFraction float64

	// EdgeInsetFraction insets the grid from the window edges so border
	// pixels and rounded corners do not skew the sample.
	EdgeInsetFraction float64
}

// DefaultConfig returns the observed sampling defaults.
func DefaultConfig() Config {
	return Config{
		GridSize:           5,
		MinVisibleFraction: 0.90,
		EdgeInsetFraction:  0.05,
	}
}

// Validator performs the visibility heuristic.
type Validator struct {
	probe  Probe
	cfg    Config
	logger *slog.Logger
}

// NewValidator creates a validator over the given desktop probe.
func NewValidator(probe Probe, cfg Config, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GridSize < 2 {
		cfg.GridSize = 2
	}
	return &Validator{
		probe:  probe,
		cfg:    cfg,
		logger: logger.With("component", "visibility"),
	}
}

// IsActuallyVisible reports whether h is the foreground window, restored,
// substantially uncovered, and not losing input capture to another
// top-level window.
func (v *Validator) IsActuallyVisible(h winapi.HWND) bool {
	if h == 0 {
		return false
	}
	if v.probe.IsMinimized(h) {
		return false
	}
	if v.probe.ForegroundWindow() != h {
		return false
	}

	rc, err := v.probe.WindowRect(h)
	if err != nil || !rc.Valid() {
		return false
	}

	root := v.probe.RootAncestor(h)
	if root == 0 {
		root = h
	}

	// The window's own center must belong to it before bothering with the
	// full grid.
	if !v.sameRoot(rc.Center(), root) {
		return false
	}

	if !v.gridMostlyVisible(rc, root) {
		return false
	}

	// Another top-level window holding mouse capture means input is being
	// routed elsewhere (menu, drag source) even though we look focused.
	if capture := v.probe.CaptureWindow(); capture != 0 {
		capRoot := v.probe.RootAncestor(capture)
		if capRoot == 0 {
			capRoot = capture
		}
		if capRoot != root {
			return false
		}
	}

	return true
}

// gridMostlyVisible samples an inset grid across the window interior and
// requires MinVisibleFraction of the points to resolve to root.
func (v *Validator) gridMostlyVisible(rc region.Rect, root winapi.HWND) bool {
	n := v.cfg.GridSize
	insetX := int32(float64(rc.Width()) * v.cfg.EdgeInsetFraction)
	insetY := int32(float64(rc.Height()) * v.cfg.EdgeInsetFraction)
	inner := region.Rect{
		Left:   rc.Left + insetX,
		Top:    rc.Top + insetY,
		Right:  rc.Right - insetX,
		Bottom: rc.Bottom - insetY,
	}
	if !inner.Valid() {
		inner = rc
	}

	visible, total := 0, 0
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			p := region.Point{
				X: inner.Left + inner.Width()*int32(2*col+1)/int32(2*n),
				Y: inner.Top + inner.Height()*int32(2*row+1)/int32(2*n),
			}
			total++
			if v.sameRoot(p, root) {
				visible++
			}
		}
	}

	return float64(visible) >= v.cfg.MinVisibleFraction*float64(total)
}

func (v *Validator) sameRoot(p region.Point, root winapi.HWND) bool {
	hit := v.probe.WindowFromPoint(p)
	if hit == 0 {
		return false
	}
	if hit == root {
		return true
	}
	return v.probe.RootAncestor(hit) == root
}
