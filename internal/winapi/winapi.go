// Package winapi is the process's only boundary to the Win32 desktop APIs.
//
// Every other package works against narrow interfaces satisfied by *Desktop,
// so the decision logic stays platform-neutral and testable. On non-Windows
// platforms New returns ErrNotSupported and the daemon refuses to start.
package winapi

import "errors"

// HWND is an opaque top-level window handle. It is never cached for
// validity; callers re-validate on every use.
type HWND uintptr

// ErrNotSupported is returned when the desktop boundary is unavailable on
// the current platform.
var ErrNotSupported = errors.New("winapi: pointer confinement requires windows")

// Hit-test results that indicate the pointer sits on a window's caption or
// sizing border, i.e. the regions a move/resize drag starts from.
const (
	hitCaption   = 2  // HTCAPTION
	hitSizeFirst = 10 // HTLEFT
	hitSizeLast  = 17 // HTBOTTOMRIGHT
	hitGrowBox   = 4  // HTGROWBOX / HTSIZE
)

// dragHit reports whether a WM_NCHITTEST result falls in the move/resize
// region of a window frame.
func dragHit(ht int32) bool {
	if ht == hitCaption || ht == hitGrowBox {
		return true
	}
	return ht >= hitSizeFirst && ht <= hitSizeLast
}
