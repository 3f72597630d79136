//go:build windows

// Package winapi Windows implementation.
//
// Follows the lazy-proc pattern: every user32/kernel32 entry point is
// declared once and resolved on first call. Struct layouts come from
// github.com/lxn/win where it defines them; the few it does not are
// declared locally.
package winapi

import (
	"fmt"
	"path/filepath"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"clipd/internal/region"
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procIsWindow                 = user32.NewProc("IsWindow")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procIsIconic                 = user32.NewProc("IsIconic")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowThreadProcessID = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procGetClientRect            = user32.NewProc("GetClientRect")
	procClientToScreen           = user32.NewProc("ClientToScreen")
	procMonitorFromWindow        = user32.NewProc("MonitorFromWindow")
	procGetMonitorInfoW          = user32.NewProc("GetMonitorInfoW")
	procWindowFromPoint          = user32.NewProc("WindowFromPoint")
	procGetAncestor              = user32.NewProc("GetAncestor")
	procGetGUIThreadInfo         = user32.NewProc("GetGUIThreadInfo")
	procGetCursorPos             = user32.NewProc("GetCursorPos")
	procSetCursorPos             = user32.NewProc("SetCursorPos")
	procClipCursor               = user32.NewProc("ClipCursor")
	procGetAsyncKeyState         = user32.NewProc("GetAsyncKeyState")
	procSendMessageW             = user32.NewProc("SendMessageW")
	procRegisterHotKey           = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey         = user32.NewProc("UnregisterHotKey")
	procPeekMessageW             = user32.NewProc("PeekMessageW")
	procTranslateMessage         = user32.NewProc("TranslateMessage")
	procDispatchMessageW         = user32.NewProc("DispatchMessageW")
	procGetSystemMetrics         = user32.NewProc("GetSystemMetrics")
)

// guiThreadInfo mirrors GUITHREADINFO; lxn/win does not declare it.
type guiThreadInfo struct {
	cbSize        uint32
	flags         uint32
	hwndActive    uintptr
	hwndFocus     uintptr
	hwndCapture   uintptr
	hwndMenuOwner uintptr
	hwndMoveSize  uintptr
	hwndCaret     uintptr
	rcCaret       win.RECT
}

// RegisterHotKey modifier flags.
const (
	modAlt     = 0x0001
	modControl = 0x0002
	modShift   = 0x0004
)

const smSwapButton = 23 // SM_SWAPBUTTON

// Desktop is the concrete Win32 desktop boundary.
type Desktop struct{}

// New returns the desktop boundary for this platform.
func New() (*Desktop, error) {
	return &Desktop{}, nil
}

// ForegroundWindow returns the window the OS currently reports as focused,
// or 0 when no window has focus.
func (d *Desktop) ForegroundWindow() HWND {
	h, _, _ := procGetForegroundWindow.Call()
	return HWND(h)
}

// IsWindow reports whether h still identifies a live window.
func (d *Desktop) IsWindow(h HWND) bool {
	r, _, _ := procIsWindow.Call(uintptr(h))
	return r != 0
}

// IsWindowVisible reports whether h is visible.
func (d *Desktop) IsWindowVisible(h HWND) bool {
	r, _, _ := procIsWindowVisible.Call(uintptr(h))
	return r != 0
}

// IsMinimized reports whether h is iconic.
func (d *Desktop) IsMinimized(h HWND) bool {
	r, _, _ := procIsIconic.Call(uintptr(h))
	return r != 0
}

// WindowText returns the title of h, or "" when it has none or is gone.
func (d *Desktop) WindowText(h HWND) string {
	var buf [512]uint16
	n, _, _ := procGetWindowTextW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return syscall.UTF16ToString(buf[:n])
}

// ProcessImageName returns the base executable name of the process owning h.
// Failures are reported, not fatal: the window may have been destroyed or
// the process may deny the query.
func (d *Desktop) ProcessImageName(h HWND) (string, error) {
	var pid uint32
	procGetWindowThreadProcessID.Call(uintptr(h), uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return "", fmt.Errorf("no process for window %#x", uintptr(h))
	}

	hProcess, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return "", fmt.Errorf("open process %d: %w", pid, err)
	}
	defer windows.CloseHandle(hProcess)

	var exeName [windows.MAX_PATH]uint16
	size := uint32(len(exeName))
	if err := windows.QueryFullProcessImageName(hProcess, 0, &exeName[0], &size); err != nil {
		return "", fmt.Errorf("query image name for pid %d: %w", pid, err)
	}

	return filepath.Base(windows.UTF16ToString(exeName[:size])), nil
}

// WindowRect returns the outer bounds of h in screen coordinates.
func (d *Desktop) WindowRect(h HWND) (region.Rect, error) {
	var rc win.RECT
	r, _, err := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&rc)))
	if r == 0 {
		return region.Rect{}, fmt.Errorf("GetWindowRect: %w", err)
	}
	return fromRECT(rc), nil
}

// ClientRect returns the client rectangle of h in client coordinates
// (origin at 0,0).
func (d *Desktop) ClientRect(h HWND) (region.Rect, error) {
	var rc win.RECT
	r, _, err := procGetClientRect.Call(uintptr(h), uintptr(unsafe.Pointer(&rc)))
	if r == 0 {
		return region.Rect{}, fmt.Errorf("GetClientRect: %w", err)
	}
	return fromRECT(rc), nil
}

// ClientToScreen translates a client-coordinate point of h to screen
// coordinates.
func (d *Desktop) ClientToScreen(h HWND, p region.Point) (region.Point, error) {
	pt := win.POINT{X: p.X, Y: p.Y}
	r, _, err := procClientToScreen.Call(uintptr(h), uintptr(unsafe.Pointer(&pt)))
	if r == 0 {
		return region.Point{}, fmt.Errorf("ClientToScreen: %w", err)
	}
	return region.Point{X: pt.X, Y: pt.Y}, nil
}

// MonitorRect returns the full bounds (not the work area) of the display
// nearest to h.
func (d *Desktop) MonitorRect(h HWND) (region.Rect, error) {
	mon, _, _ := procMonitorFromWindow.Call(uintptr(h), win.MONITOR_DEFAULTTONEAREST)
	if mon == 0 {
		return region.Rect{}, fmt.Errorf("no monitor for window %#x", uintptr(h))
	}

	var mi win.MONITORINFO
	mi.CbSize = uint32(unsafe.Sizeof(mi))
	r, _, err := procGetMonitorInfoW.Call(mon, uintptr(unsafe.Pointer(&mi)))
	if r == 0 {
		return region.Rect{}, fmt.Errorf("GetMonitorInfo: %w", err)
	}
	return fromRECT(mi.RcMonitor), nil
}

// WindowFromPoint returns the window occupying the given screen point.
func (d *Desktop) WindowFromPoint(p region.Point) HWND {
	// WindowFromPoint takes POINT by value: a single packed uintptr on
	// 64-bit, two arguments on 32-bit. Pack for amd64/arm64.
	arg := uintptr(uint32(p.X)) | uintptr(uint32(p.Y))<<32
	h, _, _ := procWindowFromPoint.Call(arg)
	return HWND(h)
}

// RootAncestor returns the top-level ancestor of h (GA_ROOT).
func (d *Desktop) RootAncestor(h HWND) HWND {
	r, _, _ := procGetAncestor.Call(uintptr(h), win.GA_ROOT)
	return HWND(r)
}

// CaptureWindow returns the window currently holding mouse capture in the
// foreground thread's input queue, or 0 when capture is free.
func (d *Desktop) CaptureWindow() HWND {
	var gti guiThreadInfo
	gti.cbSize = uint32(unsafe.Sizeof(gti))
	r, _, _ := procGetGUIThreadInfo.Call(0, uintptr(unsafe.Pointer(&gti)))
	if r == 0 {
		return 0
	}
	return HWND(gti.hwndCapture)
}

// CursorPos returns the pointer position in screen coordinates.
func (d *Desktop) CursorPos() (region.Point, error) {
	var pt win.POINT
	r, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if r == 0 {
		return region.Point{}, fmt.Errorf("GetCursorPos: %w", err)
	}
	return region.Point{X: pt.X, Y: pt.Y}, nil
}

// SetCursorPos moves the pointer to the given screen coordinates.
func (d *Desktop) SetCursorPos(p region.Point) error {
	r, _, err := procSetCursorPos.Call(uintptr(p.X), uintptr(p.Y))
	if r == 0 {
		return fmt.Errorf("SetCursorPos: %w", err)
	}
	return nil
}

// Clip confines the pointer to rc until released. Idempotent.
func (d *Desktop) Clip(rc region.Rect) error {
	w := toRECT(rc)
	r, _, err := procClipCursor.Call(uintptr(unsafe.Pointer(&w)))
	if r == 0 {
		return fmt.Errorf("ClipCursor: %w", err)
	}
	return nil
}

// Release removes any pointer confinement. Idempotent; safe to call when
// nothing is clipped.
func (d *Desktop) Release() error {
	r, _, err := procClipCursor.Call(0)
	if r == 0 {
		return fmt.Errorf("ClipCursor(release): %w", err)
	}
	return nil
}

// DragInProgress reports whether a window move/resize gesture appears to be
// in flight on h: the primary pointer button is held while the pointer sits
// over the caption or a sizing border. Heuristic only; a false positive just
// delays confinement by a tick.
func (d *Desktop) DragInProgress(h HWND) bool {
	if !d.primaryButtonDown() {
		return false
	}

	pt, err := d.CursorPos()
	if err != nil {
		return false
	}

	// WM_NCHITTEST wants the screen point packed into lParam.
	lParam := uintptr(uint16(pt.X)) | uintptr(uint16(pt.Y))<<16
	ht, _, _ := procSendMessageW.Call(uintptr(h), win.WM_NCHITTEST, 0, lParam)
	return dragHit(int32(ht))
}

// primaryButtonDown reports whether the physical primary mouse button is
// currently held, honoring swapped-button configurations.
func (d *Desktop) primaryButtonDown() bool {
	vk := uintptr(win.VK_LBUTTON)
	if swapped, _, _ := procGetSystemMetrics.Call(smSwapButton); swapped != 0 {
		vk = uintptr(win.VK_RBUTTON)
	}
	state, _, _ := procGetAsyncKeyState.Call(vk)
	return state&0x8000 != 0
}

// RegisterToggleHotkey installs a process-wide hotkey (Ctrl+Shift+C) routed
// to the calling thread's message queue.
func (d *Desktop) RegisterToggleHotkey(id int32) error {
	r, _, err := procRegisterHotKey.Call(0, uintptr(id), modControl|modShift, uintptr('C'))
	if r == 0 {
		return fmt.Errorf("RegisterHotKey: %w", err)
	}
	return nil
}

// UnregisterToggleHotkey removes the hotkey registered with id.
func (d *Desktop) UnregisterToggleHotkey(id int32) {
	procUnregisterHotKey.Call(0, uintptr(id))
}

// PumpMessage drains one pending message from the calling thread's queue
// without blocking. It returns the hotkey id when the message was a hotkey
// press, 0 otherwise, and false when the queue was empty. Non-hotkey
// messages are routed to default handling.
func (d *Desktop) PumpMessage() (hotkeyID int32, ok bool) {
	var msg win.MSG
	r, _, _ := procPeekMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0, win.PM_REMOVE)
	if r == 0 {
		return 0, false
	}

	if msg.Message == win.WM_HOTKEY {
		return int32(msg.WParam), true
	}

	procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
	procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	return 0, true
}

func fromRECT(rc win.RECT) region.Rect {
	return region.Rect{Left: rc.Left, Top: rc.Top, Right: rc.Right, Bottom: rc.Bottom}
}

func toRECT(rc region.Rect) win.RECT {
	return win.RECT{Left: rc.Left, Top: rc.Top, Right: rc.Right, Bottom: rc.Bottom}
}
