//go:build windows

package daemon

import (
	"context"
	"runtime"
	"time"
)

// loop is the poll loop. It owns its OS thread for the lifetime of the
// daemon: RegisterHotKey ties WM_HOTKEY delivery to the registering
// thread, so the hotkey pump and the tick must share one.
func (d *Daemon) loop(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	hotkeyRegistered := false
	if err := d.desktop.RegisterToggleHotkey(toggleHotkeyID); err != nil {
		// Usually another instance holds the registration. Clipping
		// still works; only the keyboard toggle is lost.
		d.logger.Warn("toggle hotkey unavailable", "error", err)
	} else {
		hotkeyRegistered = true
		d.logger.Info("toggle hotkey registered", "combo", "ctrl+shift+c")
	}
	defer func() {
		if hotkeyRegistered {
			d.desktop.UnregisterToggleHotkey(toggleHotkeyID)
		}
	}()

	ticker := time.NewTicker(d.cfg.Poll.Interval())
	defer ticker.Stop()

	d.logger.Info("poll loop started",
		"interval_ms", d.cfg.Poll.IntervalMs,
		"mode", d.cfg.Confine.Mode,
		"target", d.cfg.Target.ProcessName,
	)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("poll loop stopping", "reason", "signal")
			return nil
		case <-d.shutdownCh:
			d.logger.Info("poll loop stopping", "reason", "shutdown command")
			return nil
		case <-ticker.C:
			d.pumpHotkeys()
			d.controller.Tick(d.desktop.ForegroundWindow())
		}
	}
}

// pumpHotkeys drains pending thread messages and applies any toggle
// presses. Non-hotkey messages are dispatched inside PumpMessage.
func (d *Daemon) pumpHotkeys() {
	for {
		id, ok := d.desktop.PumpMessage()
		if !ok {
			return
		}
		if id == toggleHotkeyID {
			on := d.controller.Toggle()
			d.logger.Info("clipping toggled via hotkey", "enabled", on)
		}
	}
}
