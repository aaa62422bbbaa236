package tools

import (
	"image-markup/internal/annotation"
	"image-markup/internal/vector"
	"image-markup/pkg/geometry"
)

// minShapeExtent keeps accidental click-drags from producing invisible
// zero-area rectangles.
const minShapeExtent = 1.0

// RectangleTool sketches axis-aligned rectangle annotations.
type RectangleTool struct {
	toLocal Converter
	style   vector.Style

	active bool
	anchor geometry.Point2D
	corner geometry.Point2D
}

// NewRectangleTool creates a rectangle tool using the given coordinate
// converter and shape style.
func NewRectangleTool(toLocal Converter, style vector.Style) *RectangleTool {
	return &RectangleTool{toLocal: toLocal, style: style}
}

func (t *RectangleTool) Kind() annotation.TargetKind {
	return annotation.KindRectangle
}

func (t *RectangleTool) ToLocal(client geometry.Point2D) geometry.Point2D {
	return t.toLocal(client)
}

func (t *RectangleTool) Start(p geometry.Point2D) {
	t.active = true
	t.anchor = p
	t.corner = p
}

func (t *RectangleTool) Move(p geometry.Point2D, _ PointerEvent) {
	if !t.active {
		return
	}
	t.corner = p
}

func (t *RectangleTool) Up(p geometry.Point2D, _ PointerEvent) (annotation.Target, bool) {
	if !t.active {
		return annotation.Target{}, false
	}
	t.active = false
	t.corner = p

	r := geometry.RectFromPoints(t.anchor, t.corner)
	if r.Width < minShapeExtent {
		r.Width = minShapeExtent
	}
	if r.Height < minShapeExtent {
		r.Height = minShapeExtent
	}
	return annotation.Target{Kind: annotation.KindRectangle, Rect: r}, true
}

func (t *RectangleTool) Active() bool {
	return t.active
}

func (t *RectangleTool) Cancel() {
	t.active = false
}

func (t *RectangleTool) Preview() *vector.Node {
	if !t.active {
		return nil
	}
	return &vector.Node{
		Kind:    vector.KindRect,
		Visible: true,
		Rect:    geometry.RectFromPoints(t.anchor, t.corner),
		Style:   t.style,
	}
}

func (t *RectangleTool) EditableShape(a annotation.Annotation) *Editable {
	return NewEditable(a, t.style)
}
