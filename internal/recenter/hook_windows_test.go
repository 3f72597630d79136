//go:build windows

package recenter

import (
	"testing"
	"unsafe"

	"github.com/lxn/win"

	"clipd/internal/region"
	"clipd/internal/winapi"
)

type hookPointer struct {
	*fakeDesk
	fg    winapi.HWND
	moved []region.Point
}

func (p *hookPointer) ForegroundWindow() winapi.HWND { return p.fg }

func (p *hookPointer) SetCursorPos(pt region.Point) error {
	p.moved = append(p.moved, pt)
	return nil
}

// installTestHook makes h the process-global hook for the duration of the
// test without installing an OS hook.
func installTestHook(t *testing.T, h *Hook) {
	t.Helper()
	hookMu.Lock()
	if activeHook != nil {
		hookMu.Unlock()
		t.Fatal("another hook is active")
	}
	activeHook = h
	hookMu.Unlock()
	t.Cleanup(func() {
		hookMu.Lock()
		activeHook = nil
		hookMu.Unlock()
	})
}

func TestKeyboardProcRecentersOnTrigger(t *testing.T) {
	f := &fakeDesk{rect: region.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}}
	p := &hookPointer{fakeDesk: f, fg: hGame}
	h := NewHook(NewDecider(f, nil, f, triggerQ()), p, nil)
	installTestHook(t, h)

	kb := kbdllhookstruct{VkCode: triggerQ().VK}
	lowLevelKeyboardProc(hcAction, win.WM_KEYDOWN, uintptr(unsafe.Pointer(&kb)))

	if len(p.moved) != 1 {
		t.Fatalf("pointer moved %d times, want 1", len(p.moved))
	}
	if p.moved[0].X != 960 || p.moved[0].Y != 540 {
		t.Errorf("moved to %+v, want window center (960,540)", p.moved[0])
	}
}

func TestKeyboardProcIgnoresNonActionAndKeyUp(t *testing.T) {
	f := &fakeDesk{rect: region.Rect{Left: 0, Top: 0, Right: 100, Bottom: 100}}
	p := &hookPointer{fakeDesk: f, fg: hGame}
	h := NewHook(NewDecider(f, nil, f, triggerQ()), p, nil)
	installTestHook(t, h)

	trigger := kbdllhookstruct{VkCode: triggerQ().VK}
	other := kbdllhookstruct{VkCode: 'W'}
	lowLevelKeyboardProc(hcAction-1, win.WM_KEYDOWN, uintptr(unsafe.Pointer(&trigger)))
	lowLevelKeyboardProc(hcAction, win.WM_KEYUP, uintptr(unsafe.Pointer(&trigger)))
	lowLevelKeyboardProc(hcAction, win.WM_KEYDOWN, uintptr(unsafe.Pointer(&other)))

	if len(p.moved) != 0 {
		t.Errorf("pointer moved %d times, want 0", len(p.moved))
	}
}
