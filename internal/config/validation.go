// Package config validation.
package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	if c.Poll.IntervalMs < 1 {
		errs = append(errs, ValidationError{
			Field:   "poll.interval_ms",
			Message: "must be at least 1",
		})
	} else if c.Poll.IntervalMs > 1000 {
		errs = append(errs, ValidationError{
			Field:   "poll.interval_ms",
			Message: "over 1000ms defeats focus tracking",
		})
	}

	if c.Target.ProcessName == "" && c.Target.TitleContains == "" {
		errs = append(errs, ValidationError{
			Field:   "target",
			Message: "process_name and title_contains cannot both be empty",
		})
	}

	switch strings.ToLower(c.Confine.Mode) {
	case "fullscreen", "monitor", "client", "client-area", "clientarea":
	default:
		errs = append(errs, ValidationError{
			Field:   "confine.mode",
			Message: fmt.Sprintf("unknown mode %q (want fullscreen or client)", c.Confine.Mode),
		})
	}

	if c.Confine.CompareTolerance < 0 {
		errs = append(errs, ValidationError{
			Field:   "confine.compare_tolerance",
			Message: "cannot be negative",
		})
	}
	if c.Confine.FullscreenEdgeTolerance < 0 {
		errs = append(errs, ValidationError{
			Field:   "confine.fullscreen_edge_tolerance",
			Message: "cannot be negative",
		})
	}
	if c.Confine.FullscreenMinCoverage <= 0 || c.Confine.FullscreenMinCoverage > 1 {
		errs = append(errs, ValidationError{
			Field:   "confine.fullscreen_min_coverage",
			Message: "must be in (0, 1]",
		})
	}
	if c.Confine.TranslateRetries < 1 {
		errs = append(errs, ValidationError{
			Field:   "confine.translate_retries",
			Message: "must be at least 1",
		})
	}
	if c.Confine.VisibilityGridSize < 2 {
		errs = append(errs, ValidationError{
			Field:   "confine.visibility_grid_size",
			Message: "must be at least 2",
		})
	}
	if c.Confine.VisibilityMinFraction <= 0 || c.Confine.VisibilityMinFraction > 1 {
		errs = append(errs, ValidationError{
			Field:   "confine.visibility_min_fraction",
			Message: "must be in (0, 1]",
		})
	}

	switch strings.ToLower(c.Logging.Output) {
	case "", "stderr", "stdout", "file", "both":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("unknown output %q", c.Logging.Output),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
