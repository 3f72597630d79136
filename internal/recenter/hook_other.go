//go:build !windows

package recenter

import "log/slog"

// Hook is a stub on platforms without a system keyboard tap.
type Hook struct {
	logger *slog.Logger
}

// NewHook creates the stub listener.
func NewHook(decider *Decider, pointer Pointer, logger *slog.Logger) *Hook {
	return &Hook{logger: componentLogger(logger)}
}

// Start reports that the listener is unavailable.
func (h *Hook) Start() error {
	return ErrNotSupported
}

// Stop is a no-op.
func (h *Hook) Stop() {}
