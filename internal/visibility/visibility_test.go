package visibility

import (
	"testing"

	"clipd/internal/region"
	"clipd/internal/winapi"
)

const (
	hTarget   winapi.HWND = 1
	hChild    winapi.HWND = 2
	hOverlay  winapi.HWND = 3
	hCapturer winapi.HWND = 4
)

// fakeProbe models a desktop with a target window, an optional covering
// overlay rectangle, and an optional capture holder.
type fakeProbe struct {
	foreground winapi.HWND
	minimized  bool
	rect       region.Rect
	overlay    region.Rect // points inside resolve to hOverlay
	capture    winapi.HWND
}

func (f *fakeProbe) ForegroundWindow() winapi.HWND { return f.foreground }
func (f *fakeProbe) IsMinimized(winapi.HWND) bool  { return f.minimized }

func (f *fakeProbe) WindowRect(winapi.HWND) (region.Rect, error) {
	return f.rect, nil
}

func (f *fakeProbe) WindowFromPoint(p region.Point) winapi.HWND {
	if f.overlay.Valid() && f.overlay.Contains(p) {
		return hOverlay
	}
	if f.rect.Contains(p) {
		return hChild // hit a child control of the target
	}
	return 0
}

func (f *fakeProbe) RootAncestor(h winapi.HWND) winapi.HWND {
	switch h {
	case hChild, hTarget:
		return hTarget
	case hOverlay:
		return hOverlay
	case hCapturer:
		return hCapturer
	}
	return h
}

func (f *fakeProbe) CaptureWindow() winapi.HWND { return f.capture }

func newTestValidator(f *fakeProbe) *Validator {
	return NewValidator(f, DefaultConfig(), nil)
}

func uncoveredProbe() *fakeProbe {
	return &fakeProbe{
		foreground: hTarget,
		rect:       region.Rect{Left: 0, Top: 0, Right: 1000, Bottom: 1000},
	}
}

func TestVisibleWhenUncovered(t *testing.T) {
	if !newTestValidator(uncoveredProbe()).IsActuallyVisible(hTarget) {
		t.Error("uncovered foreground window should be visible")
	}
}

func TestNotVisibleWhenMinimized(t *testing.T) {
	f := uncoveredProbe()
	f.minimized = true
	if newTestValidator(f).IsActuallyVisible(hTarget) {
		t.Error("minimized window must not be visible")
	}
}

func TestNotVisibleWhenNotForeground(t *testing.T) {
	f := uncoveredProbe()
	f.foreground = hOverlay
	if newTestValidator(f).IsActuallyVisible(hTarget) {
		t.Error("non-foreground window must not be visible")
	}
}

func TestNotVisibleWhenCenterCovered(t *testing.T) {
	f := uncoveredProbe()
	// Small overlay square sitting exactly on the center.
	f.overlay = region.Rect{Left: 480, Top: 480, Right: 520, Bottom: 520}
	if newTestValidator(f).IsActuallyVisible(hTarget) {
		t.Error("window with covered center must not be visible")
	}
}

func TestNotVisibleWhenHalfCovered(t *testing.T) {
	f := uncoveredProbe()
	// Right half covered but the exact center left free: the grid sample
	// has to catch it.
	f.overlay = region.Rect{Left: 510, Top: 0, Right: 1000, Bottom: 1000}
	if newTestValidator(f).IsActuallyVisible(hTarget) {
		t.Error("half-covered window must fail the grid sample")
	}
}

func TestVisibleWithTinyCornerOverlap(t *testing.T) {
	f := uncoveredProbe()
	// A sliver in the top-left corner: at most one grid point, within the
	// 90% allowance.
	f.overlay = region.Rect{Left: 0, Top: 0, Right: 60, Bottom: 60}
	if !newTestValidator(f).IsActuallyVisible(hTarget) {
		t.Error("barely-covered window should still count as visible")
	}
}

func TestNotVisibleWhenForeignCapture(t *testing.T) {
	f := uncoveredProbe()
	f.capture = hCapturer
	if newTestValidator(f).IsActuallyVisible(hTarget) {
		t.Error("foreign capture holder must defeat visibility")
	}
}

func TestVisibleWhenOwnChildHoldsCapture(t *testing.T) {
	f := uncoveredProbe()
	f.capture = hChild // capture held inside the target's own tree
	if !newTestValidator(f).IsActuallyVisible(hTarget) {
		t.Error("capture held by the target's own child is fine")
	}
}

func TestNotVisibleNullHandle(t *testing.T) {
	if newTestValidator(uncoveredProbe()).IsActuallyVisible(0) {
		t.Error("null handle must not be visible")
	}
}
