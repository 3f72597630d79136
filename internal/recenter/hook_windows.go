//go:build windows

package recenter

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

var (
	user32                = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHook = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx    = user32.NewProc("CallNextHookEx")
	procGetMessageW       = user32.NewProc("GetMessageW")
	procPostThreadMessage = user32.NewProc("PostThreadMessageW")
	kernel32              = windows.NewLazySystemDLL("kernel32.dll")
	procGetCurrentThread  = kernel32.NewProc("GetCurrentThreadId")
)

// Hook identifiers github.com/lxn/win does not declare.
const (
	whKeyboardLL = 13 // WH_KEYBOARD_LL
	hcAction     = 0  // HC_ACTION
)

// kbdllhookstruct mirrors KBDLLHOOKSTRUCT.
type kbdllhookstruct struct {
	VkCode    uint32
	ScanCode  uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// The hook callback has no user-data parameter, so the installed hook's
// state is process-global. Only one Hook may run at a time.
var (
	hookMu     sync.Mutex
	activeHook *Hook
)

// Hook is the WH_KEYBOARD_LL listener. It runs a dedicated locked OS thread
// with its own message loop, which the low-level hook requires.
type Hook struct {
	decider *Decider
	pointer Pointer
	logger  *slog.Logger

	handle   uintptr
	threadID uint32
	done     chan struct{}
	startErr chan error
	running  bool
}

// NewHook creates the keyboard listener around a decider.
func NewHook(decider *Decider, pointer Pointer, logger *slog.Logger) *Hook {
	return &Hook{
		decider: decider,
		pointer: pointer,
		logger:  componentLogger(logger),
	}
}

// Start installs the low-level keyboard hook. Installation failure is
// returned, not fatal: the caller degrades to running without recentering.
func (h *Hook) Start() error {
	hookMu.Lock()
	defer hookMu.Unlock()

	if h.running {
		return fmt.Errorf("recenter: hook already running")
	}
	if activeHook != nil {
		return fmt.Errorf("recenter: another hook is active")
	}

	h.done = make(chan struct{})
	h.startErr = make(chan error, 1)
	activeHook = h

	go h.loop()

	if err := <-h.startErr; err != nil {
		activeHook = nil
		return err
	}
	h.running = true
	h.logger.Info("recenter listener installed", "trigger", h.decider.trigger.Name)
	return nil
}

// Stop unhooks and stops the message loop. Safe to call when never started.
func (h *Hook) Stop() {
	hookMu.Lock()
	defer hookMu.Unlock()

	if !h.running {
		return
	}
	h.running = false

	procPostThreadMessage.Call(uintptr(h.threadID), win.WM_QUIT, 0, 0)
	<-h.done
	activeHook = nil
	h.logger.Info("recenter listener removed")
}

// loop owns the hook for its whole lifetime. WH_KEYBOARD_LL callbacks are
// delivered on the thread that installed the hook, which must pump
// messages; the thread therefore stays locked.
func (h *Hook) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(h.done)

	tid, _, _ := procGetCurrentThread.Call()
	h.threadID = uint32(tid)

	cb := syscall.NewCallback(lowLevelKeyboardProc)
	handle, _, err := procSetWindowsHookExW.Call(whKeyboardLL, cb, 0, 0)
	if handle == 0 {
		h.startErr <- fmt.Errorf("SetWindowsHookEx: %w", err)
		return
	}
	h.handle = handle
	h.startErr <- nil

	var msg win.MSG
	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		// 0 = WM_QUIT, ^0 = error; either way the loop is done.
		if r == 0 || int32(r) == -1 {
			break
		}
	}

	procUnhookWindowsHook.Call(h.handle)
	h.handle = 0
}

// lowLevelKeyboardProc inspects key-downs and may reposition the pointer.
// It must stay cheap: the OS silently removes hooks that exceed their
// timeout budget. The event is always passed along.
func lowLevelKeyboardProc(nCode int32, wParam uintptr, lParam uintptr) uintptr {
	if nCode == hcAction && (wParam == win.WM_KEYDOWN || wParam == win.WM_SYSKEYDOWN) {
		if h := activeHook; h != nil {
			kb := (*kbdllhookstruct)(unsafe.Pointer(lParam))
			fg := h.pointer.ForegroundWindow()
			if pt, ok := h.decider.Target(uint32(kb.VkCode), fg); ok {
				// Best effort; a failed move is not worth stalling the
				// input pipeline over.
				_ = h.pointer.SetCursorPos(pt)
			}
		}
	}

	next, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return next
}
