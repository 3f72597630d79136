// Package geometry computes the screen-space rectangle the pointer should
// be confined to for a given window.
//
// Geometry is never cached: the window may move between ticks, so every
// resolve re-queries the OS. Transient query failures fall back to coarser
// rectangles rather than failing the tick.
package geometry

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clipd/internal/region"
	"clipd/internal/winapi"
)

// Mode selects which rectangle confines the pointer.
type Mode int

const (
	// ModeClientArea confines to the window's client rectangle translated
	// to screen coordinates.
	ModeClientArea Mode = iota

	// ModeFullscreen confines to the monitor bounds, and only when the
	// window genuinely covers its monitor.
	ModeFullscreen
)

// String returns the config spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeClientArea:
		return "client"
	case ModeFullscreen:
		return "fullscreen"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a config mode string.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "client", "client-area", "clientarea":
		return ModeClientArea, nil
	case "fullscreen", "monitor":
		return ModeFullscreen, nil
	default:
		return 0, fmt.Errorf("unknown geometry mode %q", s)
	}
}

// Metrics is the subset of the desktop boundary the resolver needs.
type Metrics interface {
	IsWindow(winapi.HWND) bool
	IsWindowVisible(winapi.HWND) bool
	WindowRect(winapi.HWND) (region.Rect, error)
	ClientRect(winapi.HWND) (region.Rect, error)
	ClientToScreen(winapi.HWND, region.Point) (region.Point, error)
	MonitorRect(winapi.HWND) (region.Rect, error)
}

// Config holds the resolver's tuning constants. The defaults are observed
// values, not derived ones; they are surfaced here so deployments can adjust
// them without a rebuild.
type Config struct {
	// FullscreenEdgeTolerance is the per-edge slack, in pixels, when
	// comparing window bounds to monitor bounds.
	FullscreenEdgeTolerance int32

	// FullscreenMinCoverage treats the window as fullscreen when it covers
	// at least this fraction of the monitor's area.
	FullscreenMinCoverage float64

	// ClientPlausibilitySlack is how far, in pixels, a translated client
	// corner may fall outside the raw window bounds before the client
	// rectangle is considered bogus.
	ClientPlausibilitySlack int32

	// TranslateRetries bounds coordinate-translation attempts.
	TranslateRetries int

	// TranslateRetryPause is the pause between translation attempts.
	TranslateRetryPause time.Duration
}

// DefaultConfig returns the observed tuning defaults.
func DefaultConfig() Config {
	return Config{
		FullscreenEdgeTolerance: 8,
		FullscreenMinCoverage:   0.90,
		ClientPlausibilitySlack: 10,
		TranslateRetries:        3,
		TranslateRetryPause:     5 * time.Millisecond,
	}
}

// Resolver computes confinement rectangles.
type Resolver struct {
	metrics Metrics
	cfg     Config
	logger  *slog.Logger
}

// NewResolver creates a resolver over the given desktop metrics.
func NewResolver(metrics Metrics, cfg Config, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TranslateRetries < 1 {
		cfg.TranslateRetries = 1
	}
	return &Resolver{
		metrics: metrics,
		cfg:     cfg,
		logger:  logger.With("component", "geometry"),
	}
}

// Resolve returns the rectangle to confine the pointer to for h in the
// given mode. ok is false when no valid region exists this tick. The
// returned rectangle always satisfies region.Rect.Valid when ok is true.
func (r *Resolver) Resolve(h winapi.HWND, mode Mode) (region.Rect, bool) {
	if h == 0 || !r.metrics.IsWindow(h) || !r.metrics.IsWindowVisible(h) {
		return region.Rect{}, false
	}

	switch mode {
	case ModeClientArea:
		return r.resolveClientArea(h)
	case ModeFullscreen:
		return r.resolveFullscreen(h)
	default:
		return region.Rect{}, false
	}
}

// resolveClientArea translates the client rectangle to screen coordinates,
// falling back to the raw window rectangle when the client geometry is
// unavailable or implausible.
func (r *Resolver) resolveClientArea(h winapi.HWND) (region.Rect, bool) {
	wr, err := r.metrics.WindowRect(h)
	if err != nil {
		r.logger.Debug("window rect query failed", "hwnd", uint64(h), "error", err)
		return region.Rect{}, false
	}

	cr, err := r.metrics.ClientRect(h)
	if err != nil || !cr.Valid() {
		return r.fallbackToWindow(h, wr, "client rect unavailable")
	}

	topLeft, err := r.translate(h, region.Point{X: cr.Left, Y: cr.Top})
	if err != nil {
		return r.fallbackToWindow(h, wr, "client origin translation failed")
	}
	bottomRight, err := r.translate(h, region.Point{X: cr.Right, Y: cr.Bottom})
	if err != nil {
		return r.fallbackToWindow(h, wr, "client extent translation failed")
	}

	clip := region.Rect{
		Left:   topLeft.X,
		Top:    topLeft.Y,
		Right:  bottomRight.X,
		Bottom: bottomRight.Y,
	}
	if !clip.Valid() {
		return r.fallbackToWindow(h, wr, "translated client rect degenerate")
	}

	// Translated corners falling well outside the raw window bounds mean
	// the coordinate transform raced a move; trust the window rect instead.
	plausible := wr.Inflate(r.cfg.ClientPlausibilitySlack)
	if !plausible.Contains(topLeft) || !containsInclusive(plausible, bottomRight) {
		return r.fallbackToWindow(h, wr, "translated client rect implausible")
	}

	return clip, true
}

// resolveFullscreen returns the monitor bounds when the window covers its
// monitor, judged by per-edge tolerance or area coverage.
func (r *Resolver) resolveFullscreen(h winapi.HWND) (region.Rect, bool) {
	wr, err := r.metrics.WindowRect(h)
	if err != nil || !wr.Valid() {
		return region.Rect{}, false
	}

	mr, err := r.metrics.MonitorRect(h)
	if err != nil || !mr.Valid() {
		return region.Rect{}, false
	}

	if wr.ApproxEqual(mr, r.cfg.FullscreenEdgeTolerance) {
		return mr, true
	}
	if wr.Coverage(mr) >= r.cfg.FullscreenMinCoverage {
		return mr, true
	}

	return region.Rect{}, false
}

// translate retries ClientToScreen a bounded number of times. The retry cap
// holds total stall to a few tens of milliseconds.
func (r *Resolver) translate(h winapi.HWND, p region.Point) (region.Point, error) {
	var lastErr error
	for attempt := 0; attempt < r.cfg.TranslateRetries; attempt++ {
		if attempt > 0 && r.cfg.TranslateRetryPause > 0 {
			time.Sleep(r.cfg.TranslateRetryPause)
		}
		pt, err := r.metrics.ClientToScreen(h, p)
		if err == nil {
			return pt, nil
		}
		lastErr = err
	}
	return region.Point{}, lastErr
}

func (r *Resolver) fallbackToWindow(h winapi.HWND, wr region.Rect, reason string) (region.Rect, bool) {
	if !wr.Valid() {
		return region.Rect{}, false
	}
	r.logger.Debug("falling back to window bounds", "hwnd", uint64(h), "reason", reason)
	return wr, true
}

// containsInclusive treats the right/bottom edges as inside, since a client
// extent point legitimately lands on the window's outer edge.
func containsInclusive(r region.Rect, p region.Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}
