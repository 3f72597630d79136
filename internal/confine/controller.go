// Package confine owns the confinement state machine.
//
// The controller runs once per poll tick and decides whether to apply,
// refresh, or release pointer confinement. It is the only writer of the
// confinement state; the recenter listener and IPC handlers touch nothing
// here except the atomic toggle. Every failure path degrades to release:
// a stuck pointer is the one outcome this package exists to prevent.
package confine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"clipd/internal/geometry"
	"clipd/internal/region"
	"clipd/internal/winapi"
)

// Matcher reports whether a window belongs to the monitored application.
type Matcher interface {
	IsTarget(winapi.HWND) bool
}

// Resolver computes the confinement rectangle for a window.
type Resolver interface {
	Resolve(winapi.HWND, geometry.Mode) (region.Rect, bool)
}

// Validator reports whether the target window is actually unobstructed.
// Optional; a nil validator means focus alone is trusted.
type Validator interface {
	IsActuallyVisible(winapi.HWND) bool
}

// DragDetector reports whether a window move/resize gesture is in flight.
type DragDetector interface {
	DragInProgress(winapi.HWND) bool
}

// Clipper is the OS confinement primitive. Both operations are idempotent.
type Clipper interface {
	Clip(region.Rect) error
	Release() error
}

// Config holds the controller tunables.
type Config struct {
	// Mode selects the geometry to confine to.
	Mode geometry.Mode

	// CompareTolerance is the per-edge slack when deciding whether a
	// resolved region differs enough from the applied one to re-log.
	CompareTolerance int32

	// RequireVisible gates confinement on the occlusion heuristic.
	RequireVisible bool
}

// DefaultConfig returns the controller defaults.
func DefaultConfig() Config {
	return Config{
		Mode:             geometry.ModeFullscreen,
		CompareTolerance: 2,
		RequireVisible:   false,
	}
}

// Status is a read-only snapshot of the controller for the control surface.
type Status struct {
	Enabled       bool        `json:"enabled"`
	Confined      bool        `json:"confined"`
	Region        region.Rect `json:"region,omitempty"`
	TargetFocused bool        `json:"target_focused"`
	Mode          string      `json:"mode"`
	Ticks         uint64      `json:"ticks"`
	Applies       uint64      `json:"applies"`
	Releases      uint64      `json:"releases"`
	LastChange    time.Time   `json:"last_change,omitempty"`
}

// Controller is the Released/Confined state machine.
type Controller struct {
	matcher   Matcher
	resolver  Resolver
	validator Validator
	drag      DragDetector
	clipper   Clipper
	cfg       Config
	logger    *slog.Logger

	// enabled is the process-wide toggle, flipped from the hotkey pump and
	// the IPC handler while Tick runs on the poll thread.
	enabled atomic.Bool

	// mu guards the tick-owned state below only for Status readers; Tick
	// is the sole writer.
	mu            sync.Mutex
	confined      bool
	applied       region.Rect
	haveApplied   bool
	lastFore      winapi.HWND
	targetFocused bool
	forceRefresh  bool
	dragLatch     bool
	ticks         uint64
	applies       uint64
	releases      uint64
	lastChange    time.Time
}

// New creates a controller. validator may be nil when visibility gating is
// disabled.
func New(matcher Matcher, resolver Resolver, validator Validator, drag DragDetector, clipper Clipper, cfg Config, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		matcher:   matcher,
		resolver:  resolver,
		validator: validator,
		drag:      drag,
		clipper:   clipper,
		cfg:       cfg,
		logger:    logger.With("component", "confine"),
	}
	c.enabled.Store(true)
	return c
}

// Enabled reports the process-wide toggle.
func (c *Controller) Enabled() bool {
	return c.enabled.Load()
}

// SetEnabled sets the toggle. Safe from any goroutine.
func (c *Controller) SetEnabled(on bool) {
	c.enabled.Store(on)
}

// Toggle flips the toggle and returns the new value. Safe from any
// goroutine; the poll loop observes the change on its next tick.
func (c *Controller) Toggle() bool {
	for {
		old := c.enabled.Load()
		if c.enabled.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// ForceRefresh makes the next tick recompute and reapply geometry even when
// it appears unchanged. Called after external events that may have moved
// the window behind our back.
func (c *Controller) ForceRefresh() {
	c.mu.Lock()
	c.forceRefresh = true
	c.mu.Unlock()
}

// Tick runs one step of the state machine against the current foreground
// window. Called only from the poll loop.
func (c *Controller) Tick(fg winapi.HWND) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ticks++

	// Rule 1: toggle off wins over everything.
	if !c.enabled.Load() {
		c.release("clipping disabled")
		return
	}

	// Foreground changes invalidate any geometry we remember, regardless
	// of which rule fires below.
	if fg != c.lastFore {
		c.lastFore = fg
		c.forceRefresh = true
	}

	// Re-match every tick, not only on foreground changes: a handle can be
	// reused by another process while staying foreground.
	isTarget := fg != 0 && c.matcher.IsTarget(fg)
	if isTarget != c.targetFocused {
		c.targetFocused = isTarget
		c.forceRefresh = true
		if isTarget {
			c.logger.Info("target window focused")
		} else {
			c.logger.Info("target window lost focus")
		}
	}

	// Rule 2: never recompute geometry mid-drag.
	if isTarget && c.drag != nil && c.drag.DragInProgress(fg) {
		if !c.dragLatch {
			c.dragLatch = true
			c.release("move/resize in progress")
		}
		return
	}
	if c.dragLatch {
		// Drag just ended; geometry is stale until recomputed.
		c.dragLatch = false
		c.forceRefresh = true
	}

	// Rule 3: wrong window, or right window not actually visible.
	if !isTarget {
		c.release("target not focused")
		return
	}
	if c.cfg.RequireVisible && c.validator != nil && !c.validator.IsActuallyVisible(fg) {
		c.release("target obscured")
		return
	}

	// Rule 4: resolve fresh geometry and apply.
	rc, ok := c.resolver.Resolve(fg, c.cfg.Mode)
	if !ok || !rc.Valid() {
		c.release("no valid region")
		return
	}

	firstApply := !c.confined
	changed := !c.haveApplied || !rc.ApproxEqual(c.applied, c.cfg.CompareTolerance)

	if firstApply || changed || c.forceRefresh {
		if err := c.clipper.Clip(rc); err != nil {
			c.logger.Warn("confinement apply failed", "error", err)
			c.release("apply failed")
			return
		}
		c.confined = true
		c.applied = rc
		c.haveApplied = true
		c.forceRefresh = false
		c.applies++
		c.lastChange = time.Now()
		if firstApply || changed {
			c.logger.Info("confinement applied",
				"left", rc.Left, "top", rc.Top, "right", rc.Right, "bottom", rc.Bottom,
				"mode", c.cfg.Mode.String(),
			)
		}
		return
	}

	// Unchanged region: re-apply idempotently without re-logging, so
	// external ClipCursor calls cannot silently steal the confinement.
	if err := c.clipper.Clip(c.applied); err != nil {
		c.logger.Warn("confinement refresh failed", "error", err)
		c.release("refresh failed")
	}
}

// release tears down confinement if active. Caller holds mu. Idempotent.
func (c *Controller) release(reason string) {
	if !c.confined {
		return
	}
	if err := c.clipper.Release(); err != nil {
		// Log and forget: the next tick retries, and the OS releases a
		// clip when the process dies in any case.
		c.logger.Warn("confinement release failed", "error", err)
	}
	c.confined = false
	c.haveApplied = false
	c.applied = region.Rect{}
	c.releases++
	c.lastChange = time.Now()
	c.logger.Info("confinement released", "reason", reason)
}

// ReleaseNow unconditionally releases confinement. This is the shutdown
// guarantee: it is called on every termination path and always invokes the
// OS release primitive, confined or not.
func (c *Controller) ReleaseNow() {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasConfined := c.confined
	c.confined = false
	c.haveApplied = false
	c.applied = region.Rect{}
	if err := c.clipper.Release(); err != nil {
		c.logger.Warn("final release failed", "error", err)
		return
	}
	if wasConfined {
		c.releases++
		c.logger.Info("confinement released", "reason", "shutdown")
	}
}

// Status returns a snapshot for the control surface. Safe from any
// goroutine.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		Enabled:       c.enabled.Load(),
		Confined:      c.confined,
		Region:        c.applied,
		TargetFocused: c.targetFocused,
		Mode:          c.cfg.Mode.String(),
		Ticks:         c.ticks,
		Applies:       c.applies,
		Releases:      c.releases,
		LastChange:    c.lastChange,
	}
}
