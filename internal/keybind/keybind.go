// Package keybind parses recenter trigger key names and loads the binding
// from its single-line key file.
//
// The binding is read once at startup and is immutable for the process
// lifetime; the file exists so users can change the key without touching
// the main config.
package keybind

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Binding is a resolved virtual-key binding.
type Binding struct {
	// VK is the Win32 virtual-key code.
	VK uint32

	// Name is the canonical spelling the binding was parsed from.
	Name string
}

func (b Binding) String() string { return b.Name }

// Named keys accepted by Parse, mapped to virtual-key codes.
var namedKeys = map[string]uint32{
	"TAB":       0x09,
	"ENTER":     0x0D,
	"RETURN":    0x0D,
	"SHIFT":     0x10,
	"CTRL":      0x11,
	"CONTROL":   0x11,
	"ALT":       0x12,
	"ESC":       0x1B,
	"ESCAPE":    0x1B,
	"SPACE":     0x20,
	"BACKSPACE": 0x08,
	"CAPSLOCK":  0x14,
	"INSERT":    0x2D,
	"DELETE":    0x2E,
	"HOME":      0x24,
	"END":       0x23,
	"PAGEUP":    0x21,
	"PAGEDOWN":  0x22,
	"LEFT":      0x25,
	"UP":        0x26,
	"RIGHT":     0x27,
	"DOWN":      0x28,
}

// Default is the trigger key used when no key file exists yet.
func Default() Binding {
	return Binding{VK: namedKeys["TAB"], Name: "TAB"}
}

// Parse resolves a key name to a binding. Accepted forms: a single letter,
// a single digit, a named key ("TAB", "CTRL", ...), or "F1".."F24".
func Parse(s string) (Binding, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "" {
		return Binding{}, fmt.Errorf("empty key name")
	}

	if len(name) == 1 {
		c := name[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			// Letter and digit virtual-key codes equal their ASCII values.
			return Binding{VK: uint32(c), Name: name}, nil
		}
		return Binding{}, fmt.Errorf("unsupported key %q", s)
	}

	if vk, ok := namedKeys[name]; ok {
		return Binding{VK: vk, Name: name}, nil
	}

	if strings.HasPrefix(name, "F") {
		var n int
		if _, err := fmt.Sscanf(name, "F%d", &n); err == nil && n >= 1 && n <= 24 {
			return Binding{VK: 0x70 + uint32(n-1), Name: name}, nil
		}
	}

	return Binding{}, fmt.Errorf("unknown key name %q", s)
}

// LoadOrCreate reads the binding from the key file at path. A missing file
// is created with def and def is returned; unparseable content logs a
// warning and falls back to def. The returned binding never errors the
// caller: the recenter feature always has a key.
func LoadOrCreate(path string, def Binding, logger *slog.Logger) Binding {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "keybind")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if werr := os.WriteFile(path, []byte(def.Name+"\n"), 0o644); werr != nil {
			logger.Warn("cannot create key file", "path", path, "error", werr)
		} else {
			logger.Info("created key file with default", "path", path, "key", def.Name)
		}
		return def
	}
	if err != nil {
		logger.Warn("cannot read key file, using default", "path", path, "key", def.Name, "error", err)
		return def
	}

	line := firstLine(string(data))
	b, err := Parse(line)
	if err != nil {
		logger.Warn("unparseable key file, using default", "path", path, "content", line, "key", def.Name, "error", err)
		return def
	}

	logger.Info("recenter key loaded", "key", b.Name)
	return b
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
