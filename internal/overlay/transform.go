package overlay

import (
	"image-markup/internal/vector"
	"image-markup/pkg/geometry"
)

// TransformSync keeps the overlay group's affine transform registered
// with the viewport. The transform is derived state: recomputed from
// viewport state on every change, never diffed or cached.
type TransformSync struct {
	vp     Viewport
	group  *vector.Node
	sel    *Selector
	events *Emitter

	cancel func()
	scale  float64
}

// NewTransformSync wires the sync to viewport change notifications and
// performs an initial refresh.
func NewTransformSync(vp Viewport, group *vector.Node, sel *Selector, events *Emitter) *TransformSync {
	ts := &TransformSync{vp: vp, group: group, sel: sel, events: events, scale: 1}
	ts.cancel = vp.OnChange(ts.Refresh)
	ts.Refresh()
	return ts
}

// Refresh recomputes and applies the overlay transform. As a side
// effect of every recompute, a live editable selection's handles are
// re-scaled to stay constant on screen, and a move notification fires
// while any selection exists.
func (ts *TransformSync) Refresh() {
	factor := ts.vp.ContentFactor()
	if factor == 0 {
		factor = 1
	}
	container := ts.vp.ContainerSize()

	scaleY := ts.vp.Zoom() * container.Width / factor
	scaleX := scaleY
	if ts.vp.Flipped() {
		scaleX = -scaleY
	}

	p := ts.vp.PixelFromPoint(geometry.Point2D{})
	if ts.vp.Flipped() {
		p = p.MirrorX(container.Width / 2)
	}

	// translate, then scale, then rotate: rotation happens in the
	// already-scaled, already-translated frame
	ts.group.Transform = geometry.Translation(p.X, p.Y).
		Compose(geometry.Scaling(scaleX, scaleY)).
		Compose(geometry.RotationDegrees(ts.vp.Rotation()))
	ts.scale = scaleY

	if ts.sel.Active() {
		if scaleY != 0 {
			ts.sel.SetHandleScale(1 / scaleY)
		}
		ts.events.Emit(EventMoveSelection, MoveSelectionEvent{Element: ts.sel.SelectedElement()})
	}
}

// Scale returns the scale factor applied by the last refresh.
func (ts *TransformSync) Scale() float64 {
	return ts.scale
}

// Close cancels the viewport subscription.
func (ts *TransformSync) Close() {
	if ts.cancel != nil {
		ts.cancel()
		ts.cancel = nil
	}
}
