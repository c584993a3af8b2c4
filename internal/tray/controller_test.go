package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/shotwatch/internal/popover"
)

type fakePopover struct {
	toggles int
	rects   []popover.Rect
}

func (p *fakePopover) Toggle() error {
	p.toggles++
	return nil
}

func (p *fakePopover) SetTrayRect(r popover.Rect) {
	p.rects = append(p.rects, r)
}

type exitRecorder struct {
	codes []int
}

func (e *exitRecorder) exit(code int) {
	e.codes = append(e.codes, code)
}

func TestController_QuitExitsWithZero(t *testing.T) {
	p := &fakePopover{}
	rec := &exitRecorder{}
	c := NewController(p, rec.exit, nil)

	c.Handle(MenuEvent{ID: MenuQuit})

	assert.Equal(t, []int{0}, rec.codes)
	assert.Equal(t, 0, p.toggles)
}

func TestController_QuitInEveryPopoverState(t *testing.T) {
	for _, toggles := range []int{0, 1, 2} {
		host := &countingHost{}
		pc := popover.NewController(host, popover.Options{}, nil)
		for range toggles {
			_ = pc.Toggle()
		}

		rec := &exitRecorder{}
		NewController(pc, rec.exit, nil).Handle(MenuEvent{ID: MenuQuit})
		assert.Equal(t, []int{0}, rec.codes, "after %d toggles", toggles)
	}
}

func TestController_LeftReleaseToggles(t *testing.T) {
	p := &fakePopover{}
	rec := &exitRecorder{}
	c := NewController(p, rec.exit, nil)

	c.Handle(ClickEvent{Button: ButtonLeft, State: ButtonUp, X: 1200, Y: 10})
	c.Handle(ClickEvent{Button: ButtonLeft, State: ButtonUp})

	assert.Equal(t, 2, p.toggles)
	assert.Equal(t, []popover.Rect{{X: 1200, Y: 10}}, p.rects)
	assert.Empty(t, rec.codes)
}

func TestController_IgnoresOtherEvents(t *testing.T) {
	events := []Event{
		ClickEvent{Button: ButtonLeft, State: ButtonDown},
		ClickEvent{Button: ButtonRight, State: ButtonUp},
		ClickEvent{Button: ButtonMiddle, State: ButtonUp},
		ScrollEvent{Delta: 1, Orientation: "vertical"},
		MenuEvent{ID: "settings"},
	}

	p := &fakePopover{}
	rec := &exitRecorder{}
	c := NewController(p, rec.exit, nil)
	for _, ev := range events {
		c.Handle(ev)
	}

	assert.Equal(t, 0, p.toggles)
	assert.Empty(t, rec.codes)
}

// countingHost is a minimal popover.Host for driving a real controller.
type countingHost struct {
	created int
}

func (h *countingHost) CreateWindow(popover.WindowSpec) (popover.Window, error) {
	h.created++
	return nopWindow{}, nil
}

func (h *countingHost) Monitor() (popover.Rect, error) {
	return popover.Rect{Width: 1920, Height: 1080}, nil
}

type nopWindow struct{}

func (nopWindow) MoveTo(int, int) error { return nil }
func (nopWindow) Show() error           { return nil }
func (nopWindow) Hide() error           { return nil }
func (nopWindow) Focus() error          { return nil }
