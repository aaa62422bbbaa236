package overlay

import (
	"image-markup/internal/tools"
	"image-markup/pkg/geometry"
)

// Tracker routes pointer events to its handlers while armed. Destroying
// a tracker permanently disarms it; destruction is the only removal
// path for input handlers, so a detached shape can never receive input.
type Tracker struct {
	armed     bool
	destroyed bool

	OnPress   func(p geometry.Point2D, ev tools.PointerEvent)
	OnMove    func(p geometry.Point2D, ev tools.PointerEvent)
	OnRelease func(p geometry.Point2D, ev tools.PointerEvent)
}

// NewTracker creates a disarmed tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Arm enables event delivery.
func (t *Tracker) Arm() {
	if t.destroyed {
		return
	}
	t.armed = true
}

// Disarm stops event delivery without destroying the tracker.
func (t *Tracker) Disarm() {
	t.armed = false
}

// Armed reports whether the tracker currently delivers events.
func (t *Tracker) Armed() bool {
	return t.armed && !t.destroyed
}

// Destroy permanently disables the tracker and drops its handlers.
func (t *Tracker) Destroy() {
	t.destroyed = true
	t.armed = false
	t.OnPress = nil
	t.OnMove = nil
	t.OnRelease = nil
}

// Destroyed reports whether the tracker has been destroyed.
func (t *Tracker) Destroyed() bool {
	return t.destroyed
}

// Press delivers a press if armed.
func (t *Tracker) Press(p geometry.Point2D, ev tools.PointerEvent) {
	if t.Armed() && t.OnPress != nil {
		t.OnPress(p, ev)
	}
}

// Move delivers a move if armed.
func (t *Tracker) Move(p geometry.Point2D, ev tools.PointerEvent) {
	if t.Armed() && t.OnMove != nil {
		t.OnMove(p, ev)
	}
}

// Release delivers a release if armed.
func (t *Tracker) Release(p geometry.Point2D, ev tools.PointerEvent) {
	if t.Armed() && t.OnRelease != nil {
		t.OnRelease(p, ev)
	}
}
