package overlay

import (
	"image-markup/internal/tools"
)

// DrawController arms drawing on the modifier key and runs the active
// tool's pointer session. While a session is in flight the controller
// stays armed even if the modifier is released, so a stroke is never
// cut short mid-drag.
type DrawController struct {
	reg     *tools.Registry
	sel     *Selector
	tracker *Tracker
	enabled bool
	cancel  func()
}

// NewDrawController subscribes to the key source's modifier signal.
func NewDrawController(keys KeySource, reg *tools.Registry, sel *Selector) *DrawController {
	dc := &DrawController{reg: reg, sel: sel, tracker: NewTracker(), enabled: true}
	dc.cancel = keys.OnModifier(dc.modifier)
	return dc
}

// Close cancels the key subscription and ends any in-flight session.
func (dc *DrawController) Close() {
	if dc.cancel != nil {
		dc.cancel()
		dc.cancel = nil
	}
	if tool := dc.reg.Active(); tool != nil && tool.Active() {
		tool.Cancel()
	}
	dc.tracker.Destroy()
}

func (dc *DrawController) modifier(down bool) {
	if down {
		// no drawing over a selection; deselect first
		if dc.enabled && !dc.sel.Active() {
			dc.tracker.Arm()
		}
		return
	}
	if tool := dc.reg.Active(); tool != nil && tool.Active() {
		return
	}
	dc.tracker.Disarm()
}

// Enable allows the modifier to arm drawing again.
func (dc *DrawController) Enable() { dc.enabled = true }

// Disable disarms immediately and ignores the modifier until enabled.
// An in-flight session is cancelled.
func (dc *DrawController) Disable() {
	dc.enabled = false
	dc.tracker.Disarm()
	if tool := dc.reg.Active(); tool != nil && tool.Active() {
		tool.Cancel()
	}
}

// Disarm drops the armed state without touching the enabled flag. Used
// after a completed stroke so the next press selects rather than draws.
func (dc *DrawController) Disarm() {
	dc.tracker.Disarm()
}

// Armed reports whether the next press starts a drawing session.
func (dc *DrawController) Armed() bool {
	return dc.tracker.Armed()
}

// Drawing reports whether a pointer session is in flight.
func (dc *DrawController) Drawing() bool {
	tool := dc.reg.Active()
	return tool != nil && tool.Active()
}

// Press begins a session on the active tool. It reports whether the
// event was consumed.
func (dc *DrawController) Press(ev tools.PointerEvent) bool {
	if !dc.tracker.Armed() {
		return false
	}
	tool := dc.reg.Active()
	if tool == nil {
		return false
	}
	tool.Start(tool.ToLocal(ev.Client))
	return true
}

// Move forwards pointer motion to an in-flight session.
func (dc *DrawController) Move(ev tools.PointerEvent) bool {
	tool := dc.reg.Active()
	if tool == nil || !tool.Active() {
		return false
	}
	tool.Move(tool.ToLocal(ev.Client), ev)
	return true
}

// Up ends an in-flight session through the registry so completion
// listeners fire.
func (dc *DrawController) Up(ev tools.PointerEvent) bool {
	tool := dc.reg.Active()
	if tool == nil || !tool.Active() {
		return false
	}
	dc.reg.Up(tool.ToLocal(ev.Client), ev)
	return true
}
