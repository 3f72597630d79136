// Package daemon wires the configuration, desktop access, state machine,
// keyboard listener, and control surface into a running process.
//
// The daemon owns the poll loop. Everything else - the recenter hook, the
// IPC server, the config watcher - runs beside it and communicates through
// the controller's atomic toggle or through channels.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"clipd/internal/confine"
	"clipd/internal/config"
	"clipd/internal/geometry"
	"clipd/internal/ipc"
	"clipd/internal/keybind"
	"clipd/internal/recenter"
	"clipd/internal/target"
	"clipd/internal/visibility"
	"clipd/internal/winapi"
)

// toggleHotkeyID identifies the Ctrl+Shift+C registration in the thread's
// hotkey table.
const toggleHotkeyID = 1

// Daemon is the assembled process.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	desktop    *winapi.Desktop
	controller *confine.Controller
	hook       *recenter.Hook
	server     *ipc.Server

	// shutdownCh is closed by the IPC shutdown command; the poll loop
	// treats it like a signal.
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// New builds the daemon from a validated configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}

	desktop, err := winapi.New()
	if err != nil {
		return nil, fmt.Errorf("daemon: %w", err)
	}

	mode, err := geometry.ParseMode(cfg.Confine.Mode)
	if err != nil {
		return nil, fmt.Errorf("daemon: %w", err)
	}

	matcher := target.NewMatcher(desktop, target.Config{
		ProcessName:   cfg.Target.ProcessName,
		TitleContains: cfg.Target.TitleContains,
	}, logger)

	resolver := geometry.NewResolver(desktop, geometry.Config{
		FullscreenEdgeTolerance: cfg.Confine.FullscreenEdgeTolerance,
		FullscreenMinCoverage:   cfg.Confine.FullscreenMinCoverage,
		ClientPlausibilitySlack: cfg.Confine.ClientPlausibilitySlack,
		TranslateRetries:        cfg.Confine.TranslateRetries,
		TranslateRetryPause:     cfg.Confine.TranslateRetryPause(),
	}, logger)

	var validator confine.Validator
	vis := visibility.NewValidator(desktop, visibility.Config{
		GridSize:           cfg.Confine.VisibilityGridSize,
		MinVisibleFraction: cfg.Confine.VisibilityMinFraction,
		EdgeInsetFraction:  visibility.DefaultConfig().EdgeInsetFraction,
	}, logger)
	if cfg.Confine.RequireVisible {
		validator = vis
	}

	controller := confine.New(matcher, resolver, validator, desktop, desktop, confine.Config{
		Mode:             mode,
		CompareTolerance: cfg.Confine.CompareTolerance,
		RequireVisible:   cfg.Confine.RequireVisible,
	}, logger)

	d := &Daemon{
		cfg:        cfg,
		logger:     logger.With("component", "daemon"),
		desktop:    desktop,
		controller: controller,
		shutdownCh: make(chan struct{}),
	}

	if cfg.Recenter.Enabled {
		trigger := keybind.LoadOrCreate(cfg.Recenter.KeyFile, keybind.Default(), logger)
		decider := recenter.NewDecider(matcher, validator, desktop, trigger)
		d.hook = recenter.NewHook(decider, desktop, logger)
	}

	if cfg.IPC.Enabled {
		d.server = ipc.NewServer(cfg.IPC.Endpoint, ipc.HandlerFunc(d.handleMessage), logger)
	}

	return d, nil
}

// Status returns the controller snapshot.
func (d *Daemon) Status() confine.Status {
	return d.controller.Status()
}

// Run starts the side services and blocks in the poll loop until ctx is
// cancelled or a shutdown command arrives. Confinement is released on
// every exit path.
func (d *Daemon) Run(ctx context.Context) error {
	if d.hook != nil {
		if err := d.hook.Start(); err != nil {
			// The daemon still confines without recentering.
			d.logger.Warn("recenter listener unavailable", "error", err)
			d.hook = nil
		}
	}
	if d.server != nil {
		if err := d.server.Start(); err != nil {
			d.logger.Warn("control endpoint unavailable", "error", err)
			d.server = nil
		}
	}

	defer func() {
		if d.server != nil {
			d.server.Close()
		}
		if d.hook != nil {
			d.hook.Stop()
		}
		d.controller.ReleaseNow()
	}()

	return d.loop(ctx)
}

// handleMessage services one control request. It runs on an IPC connection
// goroutine; everything it touches is safe off the poll thread.
func (d *Daemon) handleMessage(_ context.Context, msg *ipc.Message) (*ipc.Message, error) {
	switch msg.Type {
	case ipc.MsgPing:
		return &ipc.Message{Type: ipc.MsgPong, ID: msg.ID}, nil

	case ipc.MsgStatusRequest:
		return ipc.NewResponse(ipc.MsgStatusResponse, msg.ID, d.controller.Status())

	case ipc.MsgToggle:
		on := d.controller.Toggle()
		d.logger.Info("clipping toggled via control endpoint", "enabled", on)
		return ipc.NewResponse(ipc.MsgToggleResp, msg.ID, ipc.TogglePayload{Enabled: on})

	case ipc.MsgEnable:
		d.controller.SetEnabled(true)
		return ipc.NewResponse(ipc.MsgToggleResp, msg.ID, ipc.TogglePayload{Enabled: true})

	case ipc.MsgDisable:
		d.controller.SetEnabled(false)
		return ipc.NewResponse(ipc.MsgToggleResp, msg.ID, ipc.TogglePayload{Enabled: false})

	case ipc.MsgShutdown:
		d.requestShutdown()
		return &ipc.Message{Type: ipc.MsgShutdownResp, ID: msg.ID, Payload: json.RawMessage(`{"ok":true}`)}, nil

	default:
		return nil, fmt.Errorf("unknown command %#x", msg.Type)
	}
}

// requestShutdown closes the shutdown channel exactly once.
func (d *Daemon) requestShutdown() {
	d.shutdownOnce.Do(func() { close(d.shutdownCh) })
}
