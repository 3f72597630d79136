package recenter

import (
	"errors"
	"testing"

	"clipd/internal/keybind"
	"clipd/internal/region"
	"clipd/internal/winapi"
)

const (
	hGame  winapi.HWND = 1
	hOther winapi.HWND = 2
)

type fakeDesk struct {
	rect    region.Rect
	rectErr error
	visible bool
}

func (f *fakeDesk) IsTarget(h winapi.HWND) bool { return h == hGame }

func (f *fakeDesk) IsActuallyVisible(winapi.HWND) bool { return f.visible }

func (f *fakeDesk) WindowRect(winapi.HWND) (region.Rect, error) {
	return f.rect, f.rectErr
}

func triggerQ() keybind.Binding {
	b, _ := keybind.Parse("Q")
	return b
}

func TestTargetOnTriggerKey(t *testing.T) {
	f := &fakeDesk{rect: region.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}}
	d := NewDecider(f, nil, f, triggerQ())

	pt, ok := d.Target(triggerQ().VK, hGame)
	if !ok {
		t.Fatal("trigger key on focused target should recenter")
	}
	if pt.X != 960 || pt.Y != 540 {
		t.Errorf("point = %+v, want window center (960,540)", pt)
	}
}

func TestTargetOnEscapeKey(t *testing.T) {
	f := &fakeDesk{rect: region.Rect{Left: 100, Top: 100, Right: 300, Bottom: 300}}
	d := NewDecider(f, nil, f, triggerQ())

	pt, ok := d.Target(vkEscape, hGame)
	if !ok {
		t.Fatal("escape key should always recenter on the target")
	}
	if pt.X != 200 || pt.Y != 200 {
		t.Errorf("point = %+v, want (200,200)", pt)
	}
}

func TestNoRecenterOnOtherKeys(t *testing.T) {
	f := &fakeDesk{rect: region.Rect{Left: 0, Top: 0, Right: 100, Bottom: 100}}
	d := NewDecider(f, nil, f, triggerQ())

	if _, ok := d.Target('W', hGame); ok {
		t.Error("unrelated key must not recenter")
	}
}

func TestNoRecenterWhenTargetNotFocused(t *testing.T) {
	f := &fakeDesk{rect: region.Rect{Left: 0, Top: 0, Right: 100, Bottom: 100}}
	d := NewDecider(f, nil, f, triggerQ())

	if _, ok := d.Target(triggerQ().VK, hOther); ok {
		t.Error("trigger on non-target foreground must not recenter")
	}
	if _, ok := d.Target(triggerQ().VK, 0); ok {
		t.Error("no foreground window must not recenter")
	}
}

func TestVisibilityGatesRecenter(t *testing.T) {
	f := &fakeDesk{rect: region.Rect{Left: 0, Top: 0, Right: 100, Bottom: 100}}
	d := NewDecider(f, f, f, triggerQ())

	if _, ok := d.Target(triggerQ().VK, hGame); ok {
		t.Error("obscured target must not recenter when gated")
	}

	f.visible = true
	if _, ok := d.Target(triggerQ().VK, hGame); !ok {
		t.Error("visible target should recenter")
	}
}

func TestNoRecenterOnBadGeometry(t *testing.T) {
	f := &fakeDesk{rectErr: errors.New("window gone")}
	d := NewDecider(f, nil, f, triggerQ())

	if _, ok := d.Target(triggerQ().VK, hGame); ok {
		t.Error("rect query failure must not recenter")
	}

	f.rectErr = nil
	f.rect = region.Rect{Left: 50, Top: 50, Right: 50, Bottom: 50}
	if _, ok := d.Target(triggerQ().VK, hGame); ok {
		t.Error("degenerate rect must not recenter")
	}
}
