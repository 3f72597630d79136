//go:build !windows

package winapi

import "clipd/internal/region"

// Desktop is a stub on platforms without Win32 pointer confinement. Every
// query fails closed so nothing is ever clipped.
type Desktop struct{}

// New reports that pointer confinement is unavailable on this platform.
func New() (*Desktop, error) {
	return nil, ErrNotSupported
}

func (d *Desktop) ForegroundWindow() HWND    { return 0 }
func (d *Desktop) IsWindow(HWND) bool        { return false }
func (d *Desktop) IsWindowVisible(HWND) bool { return false }
func (d *Desktop) IsMinimized(HWND) bool     { return false }
func (d *Desktop) WindowText(HWND) string    { return "" }

func (d *Desktop) ProcessImageName(HWND) (string, error) {
	return "", ErrNotSupported
}

func (d *Desktop) WindowRect(HWND) (region.Rect, error) {
	return region.Rect{}, ErrNotSupported
}

func (d *Desktop) ClientRect(HWND) (region.Rect, error) {
	return region.Rect{}, ErrNotSupported
}

func (d *Desktop) ClientToScreen(HWND, region.Point) (region.Point, error) {
	return region.Point{}, ErrNotSupported
}

func (d *Desktop) MonitorRect(HWND) (region.Rect, error) {
	return region.Rect{}, ErrNotSupported
}

func (d *Desktop) WindowFromPoint(region.Point) HWND { return 0 }
func (d *Desktop) RootAncestor(HWND) HWND            { return 0 }
func (d *Desktop) CaptureWindow() HWND               { return 0 }

func (d *Desktop) CursorPos() (region.Point, error) {
	return region.Point{}, ErrNotSupported
}

func (d *Desktop) SetCursorPos(region.Point) error { return ErrNotSupported }
func (d *Desktop) Clip(region.Rect) error          { return ErrNotSupported }
func (d *Desktop) Release() error                  { return nil }
func (d *Desktop) DragInProgress(HWND) bool        { return false }

func (d *Desktop) RegisterToggleHotkey(int32) error { return ErrNotSupported }
func (d *Desktop) UnregisterToggleHotkey(int32)     {}

func (d *Desktop) PumpMessage() (int32, bool) { return 0, false }
