package tools

import (
	"image-markup/internal/annotation"
	"image-markup/internal/vector"
	"image-markup/pkg/colorutil"
	"image-markup/pkg/geometry"
)

// baseHandleSize is the on-screen edge length of a manipulation handle
// in pixels, before the reciprocal-zoom scale is applied.
const baseHandleSize = 8.0

const (
	dragNone = -1
	dragBody = -2
)

// Editable is a handle-bearing shape for in-place geometry editing. It
// owns its scene nodes; the selection machine owns the Editable.
type Editable struct {
	ann    annotation.Annotation
	target annotation.Target

	root    *vector.Node
	shape   *vector.Node
	handles *vector.Node

	handleScale float64
	onUpdate    func(annotation.Target)

	dragging    int
	pressLocal  geometry.Point2D
	startTarget annotation.Target
}

// NewEditable builds an editable shape for the annotation with the
// given shape style. Handles start at unit scale.
func NewEditable(a annotation.Annotation, style vector.Style) *Editable {
	e := &Editable{
		ann:         a,
		target:      a.Target,
		handleScale: 1,
		dragging:    dragNone,
	}

	e.shape = shapeNode(a.Target, style)
	e.shape.AnnotationID = a.ID

	e.handles = vector.NewGroup()
	e.root = vector.NewGroup()
	e.root.Append(e.shape)
	e.root.Append(e.handles)
	e.rebuildHandles()
	return e
}

// shapeNode renders a target as a scene node.
func shapeNode(t annotation.Target, style vector.Style) *vector.Node {
	n := &vector.Node{Visible: true, Style: style, Transform: geometry.Identity()}
	switch t.Kind {
	case annotation.KindRectangle:
		n.Kind = vector.KindRect
		n.Rect = t.Rect
	case annotation.KindPolygon:
		n.Kind = vector.KindPolygon
		n.Points = append([]geometry.Point2D(nil), t.Points...)
	case annotation.KindPoint:
		n.Kind = vector.KindMarker
		n.Point = t.Point
	}
	return n
}

// Annotation returns the annotation this shape edits.
func (e *Editable) Annotation() annotation.Annotation {
	return e.ann
}

// Target returns the in-progress geometry.
func (e *Editable) Target() annotation.Target {
	return e.target
}

// Element returns the interactive root node (shape plus handles).
func (e *Editable) Element() *vector.Node {
	return e.root
}

// OnUpdate registers the geometry-fragment listener fired on every edit.
func (e *Editable) OnUpdate(fn func(annotation.Target)) {
	e.onUpdate = fn
}

// SetHandleScale rescales the handles by the reciprocal of the current
// zoom so their on-screen size stays constant.
func (e *Editable) SetHandleScale(scale float64) {
	if scale <= 0 {
		scale = 1
	}
	e.handleScale = scale
	e.root.HandleScale = scale
	e.rebuildHandles()
}

// HitTest reports whether the local point is over the interactive
// region (shape body or any handle).
func (e *Editable) HitTest(p geometry.Point2D) bool {
	return e.handleAt(p) != dragNone || e.shape.HitTest(p)
}

// Press begins a drag: on a handle, that anchor; on the body, the whole
// shape. Elsewhere it is a no-op.
func (e *Editable) Press(p geometry.Point2D) {
	if idx := e.handleAt(p); idx != dragNone {
		e.dragging = idx
	} else if e.shape.HitTest(p) {
		e.dragging = dragBody
	} else {
		return
	}
	e.pressLocal = p
	e.startTarget = e.target
}

// Drag advances an active drag and emits an update with the in-progress
// geometry.
func (e *Editable) Drag(p geometry.Point2D) {
	if e.dragging == dragNone {
		return
	}

	if e.dragging == dragBody {
		delta := p.Sub(e.pressLocal)
		e.target = e.startTarget.Transform(geometry.Translation(delta.X, delta.Y))
	} else {
		e.target = moveAnchor(e.startTarget, e.dragging, p)
	}

	e.syncShape()
	e.rebuildHandles()
	if e.onUpdate != nil {
		e.onUpdate(e.target)
	}
}

// Dragging reports whether a handle or body drag is in progress.
func (e *Editable) Dragging() bool {
	return e.dragging != dragNone
}

// Release ends an active drag.
func (e *Editable) Release(p geometry.Point2D) {
	if e.dragging == dragNone {
		return
	}
	e.Drag(p)
	e.dragging = dragNone
}

// Destroy releases the scene nodes. The Editable must not be used
// afterwards.
func (e *Editable) Destroy() {
	e.root.Clear()
	e.handles.Clear()
	e.onUpdate = nil
}

// anchors returns the draggable anchor points of the current target.
func (e *Editable) anchors() []geometry.Point2D {
	switch e.target.Kind {
	case annotation.KindRectangle:
		c := e.target.Rect.Corners()
		return c[:]
	case annotation.KindPolygon:
		return e.target.Points
	case annotation.KindPoint:
		return []geometry.Point2D{e.target.Point}
	default:
		return nil
	}
}

// moveAnchor returns the target with anchor idx moved to p.
func moveAnchor(t annotation.Target, idx int, p geometry.Point2D) annotation.Target {
	out := t
	switch t.Kind {
	case annotation.KindRectangle:
		corners := t.Rect.Corners()
		if idx < 0 || idx >= len(corners) {
			return t
		}
		// Opposite corner stays fixed
		opposite := corners[(idx+2)%4]
		out.Rect = geometry.RectFromPoints(opposite, p)
	case annotation.KindPolygon:
		if idx < 0 || idx >= len(t.Points) {
			return t
		}
		out.Points = append([]geometry.Point2D(nil), t.Points...)
		out.Points[idx] = p
	case annotation.KindPoint:
		out.Point = p
	}
	return out
}

func (e *Editable) syncShape() {
	switch e.target.Kind {
	case annotation.KindRectangle:
		e.shape.Rect = e.target.Rect
	case annotation.KindPolygon:
		e.shape.Points = append([]geometry.Point2D(nil), e.target.Points...)
	case annotation.KindPoint:
		e.shape.Point = e.target.Point
	}
}

func (e *Editable) rebuildHandles() {
	e.handles.Clear()
	size := baseHandleSize * e.handleScale
	style := vector.Style{
		Stroke:      colorutil.Black,
		StrokeWidth: 1,
		Fill:        colorutil.White,
		FillOpacity: 1,
	}
	for _, a := range e.anchors() {
		e.handles.Append(&vector.Node{
			Kind:    vector.KindHandle,
			Visible: true,
			Rect:    geometry.NewRect(a.X-size/2, a.Y-size/2, size, size),
			Style:   style,
		})
	}
}

func (e *Editable) handleAt(p geometry.Point2D) int {
	for i, h := range e.handles.Children {
		if h.Rect.Contains(p) {
			return i
		}
	}
	return dragNone
}
