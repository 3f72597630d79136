package geometry

import (
	"errors"
	"testing"

	"clipd/internal/region"
	"clipd/internal/winapi"
)

// fakeMetrics serves canned geometry for a single window handle.
type fakeMetrics struct {
	live       bool
	visible    bool
	windowRect region.Rect
	windowErr  error
	clientRect region.Rect
	clientErr  error
	monitor    region.Rect
	monitorErr error

	// translate maps client points to screen points; translateFailures
	// makes the first N calls fail.
	translateOffset   region.Point
	translateFailures int
	translateCalls    int
}

func (f *fakeMetrics) IsWindow(winapi.HWND) bool        { return f.live }
func (f *fakeMetrics) IsWindowVisible(winapi.HWND) bool { return f.visible }

func (f *fakeMetrics) WindowRect(winapi.HWND) (region.Rect, error) {
	return f.windowRect, f.windowErr
}

func (f *fakeMetrics) ClientRect(winapi.HWND) (region.Rect, error) {
	return f.clientRect, f.clientErr
}

func (f *fakeMetrics) ClientToScreen(_ winapi.HWND, p region.Point) (region.Point, error) {
	f.translateCalls++
	if f.translateCalls <= f.translateFailures {
		return region.Point{}, errors.New("translation failed")
	}
	return region.Point{X: p.X + f.translateOffset.X, Y: p.Y + f.translateOffset.Y}, nil
}

func (f *fakeMetrics) MonitorRect(winapi.HWND) (region.Rect, error) {
	return f.monitor, f.monitorErr
}

func newTestResolver(f *fakeMetrics) *Resolver {
	cfg := DefaultConfig()
	cfg.TranslateRetryPause = 0 // no sleeping in tests
	return NewResolver(f, cfg, nil)
}

func TestFullscreenExactMatch(t *testing.T) {
	mon := region.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}
	f := &fakeMetrics{live: true, visible: true, windowRect: mon, monitor: mon}

	got, ok := newTestResolver(f).Resolve(1, ModeFullscreen)
	if !ok {
		t.Fatal("exact fullscreen window should resolve")
	}
	if got != mon {
		t.Errorf("clip = %+v, want monitor bounds %+v", got, mon)
	}
}

func TestFullscreenWithinEdgeTolerance(t *testing.T) {
	mon := region.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}
	// Borderless window hanging 7px over each edge.
	win := region.Rect{Left: -7, Top: -7, Right: 1927, Bottom: 1087}
	f := &fakeMetrics{live: true, visible: true, windowRect: win, monitor: mon}

	got, ok := newTestResolver(f).Resolve(1, ModeFullscreen)
	if !ok {
		t.Fatal("window within 8px of every monitor edge should resolve")
	}
	if got != mon {
		t.Errorf("clip = %+v, want monitor bounds (not window bounds)", got)
	}
}

func TestFullscreenPartialWindowInvalid(t *testing.T) {
	mon := region.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}
	// 900x800 on 1920x1080: ~35% coverage, edges far off.
	win := region.Rect{Left: 100, Top: 100, Right: 1000, Bottom: 900}
	f := &fakeMetrics{live: true, visible: true, windowRect: win, monitor: mon}

	if _, ok := newTestResolver(f).Resolve(1, ModeFullscreen); ok {
		t.Error("windowed-mode window must not resolve in fullscreen mode")
	}
}

func TestFullscreenCoverageThreshold(t *testing.T) {
	mon := region.Rect{Left: 0, Top: 0, Right: 1000, Bottom: 1000}
	// 950x960 = 91.2% coverage, edges beyond tolerance.
	win := region.Rect{Left: 20, Top: 20, Right: 970, Bottom: 980}
	f := &fakeMetrics{live: true, visible: true, windowRect: win, monitor: mon}

	got, ok := newTestResolver(f).Resolve(1, ModeFullscreen)
	if !ok {
		t.Fatal(">=90% coverage should count as fullscreen")
	}
	if got != mon {
		t.Errorf("clip = %+v, want monitor bounds", got)
	}
}

func TestClientAreaTranslation(t *testing.T) {
	// Outer bounds (0,0)-(800,600), client (0,0)-(784,560) translating to
	// screen (8,31)-(792,591).
	f := &fakeMetrics{
		live:            true,
		visible:         true,
		windowRect:      region.Rect{Left: 0, Top: 0, Right: 800, Bottom: 600},
		clientRect:      region.Rect{Left: 0, Top: 0, Right: 784, Bottom: 560},
		translateOffset: region.Point{X: 8, Y: 31},
	}

	got, ok := newTestResolver(f).Resolve(1, ModeClientArea)
	if !ok {
		t.Fatal("client-area resolve failed")
	}
	want := region.Rect{Left: 8, Top: 31, Right: 792, Bottom: 591}
	if got != want {
		t.Errorf("clip = %+v, want %+v", got, want)
	}
}

func TestClientAreaTranslateRetrySucceeds(t *testing.T) {
	f := &fakeMetrics{
		live:              true,
		visible:           true,
		windowRect:        region.Rect{Left: 0, Top: 0, Right: 800, Bottom: 600},
		clientRect:        region.Rect{Left: 0, Top: 0, Right: 784, Bottom: 560},
		translateOffset:   region.Point{X: 8, Y: 31},
		translateFailures: 2, // first two attempts fail, third succeeds
	}

	got, ok := newTestResolver(f).Resolve(1, ModeClientArea)
	if !ok {
		t.Fatal("resolve should survive transient translation failures")
	}
	want := region.Rect{Left: 8, Top: 31, Right: 792, Bottom: 591}
	if got != want {
		t.Errorf("clip = %+v, want %+v", got, want)
	}
}

func TestClientAreaTranslateExhaustedFallsBack(t *testing.T) {
	win := region.Rect{Left: 10, Top: 10, Right: 810, Bottom: 610}
	f := &fakeMetrics{
		live:              true,
		visible:           true,
		windowRect:        win,
		clientRect:        region.Rect{Left: 0, Top: 0, Right: 784, Bottom: 560},
		translateFailures: 100, // every attempt fails
	}

	got, ok := newTestResolver(f).Resolve(1, ModeClientArea)
	if !ok {
		t.Fatal("resolve should fall back to the window rect")
	}
	if got != win {
		t.Errorf("clip = %+v, want window bounds %+v", got, win)
	}
	if f.translateCalls != DefaultConfig().TranslateRetries {
		t.Errorf("translate attempts = %d, want %d", f.translateCalls, DefaultConfig().TranslateRetries)
	}
}

func TestClientAreaImplausibleTranslationFallsBack(t *testing.T) {
	win := region.Rect{Left: 0, Top: 0, Right: 800, Bottom: 600}
	f := &fakeMetrics{
		live:       true,
		visible:    true,
		windowRect: win,
		clientRect: region.Rect{Left: 0, Top: 0, Right: 784, Bottom: 560},
		// Corners land 500px away from the window: stale transform.
		translateOffset: region.Point{X: 500, Y: 500},
	}

	got, ok := newTestResolver(f).Resolve(1, ModeClientArea)
	if !ok {
		t.Fatal("resolve should fall back to the window rect")
	}
	if got != win {
		t.Errorf("clip = %+v, want window bounds %+v", got, win)
	}
}

func TestClientAreaDegenerateClientFallsBack(t *testing.T) {
	win := region.Rect{Left: 100, Top: 100, Right: 900, Bottom: 700}
	f := &fakeMetrics{
		live:       true,
		visible:    true,
		windowRect: win,
		clientRect: region.Rect{}, // zero-size client area
	}

	got, ok := newTestResolver(f).Resolve(1, ModeClientArea)
	if !ok || got != win {
		t.Errorf("degenerate client rect should fall back to window bounds, got %+v ok=%v", got, ok)
	}
}

func TestNeverReturnsDegenerateRect(t *testing.T) {
	// Both the window and client rects are degenerate: nothing valid exists.
	f := &fakeMetrics{
		live:       true,
		visible:    true,
		windowRect: region.Rect{Left: 50, Top: 50, Right: 50, Bottom: 50},
		clientRect: region.Rect{Left: 0, Top: 0, Right: 0, Bottom: 0},
	}
	r := newTestResolver(f)

	for _, mode := range []Mode{ModeClientArea, ModeFullscreen} {
		if rc, ok := r.Resolve(1, mode); ok {
			t.Errorf("mode %v returned %+v from degenerate source rects", mode, rc)
		}
	}
}

func TestResolveDeadOrHiddenWindow(t *testing.T) {
	mon := region.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}

	dead := &fakeMetrics{live: false, visible: true, windowRect: mon, monitor: mon}
	if _, ok := newTestResolver(dead).Resolve(1, ModeFullscreen); ok {
		t.Error("dead window must not resolve")
	}

	hidden := &fakeMetrics{live: true, visible: false, windowRect: mon, monitor: mon}
	if _, ok := newTestResolver(hidden).Resolve(1, ModeFullscreen); ok {
		t.Error("hidden window must not resolve")
	}

	if _, ok := newTestResolver(dead).Resolve(0, ModeFullscreen); ok {
		t.Error("null handle must not resolve")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"client", ModeClientArea, false},
		{"Client-Area", ModeClientArea, false},
		{"fullscreen", ModeFullscreen, false},
		{"MONITOR", ModeFullscreen, false},
		{" fullscreen ", ModeFullscreen, false},
		{"windowed", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q) should fail", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}
