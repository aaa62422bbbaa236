package tools

import (
	"image-markup/internal/annotation"
	"image-markup/internal/vector"
	"image-markup/pkg/geometry"
)

// PointTool places single-point marker annotations at the release
// location.
type PointTool struct {
	toLocal Converter
	style   vector.Style

	active bool
	at     geometry.Point2D
}

// NewPointTool creates a point marker tool.
func NewPointTool(toLocal Converter, style vector.Style) *PointTool {
	return &PointTool{toLocal: toLocal, style: style}
}

func (t *PointTool) Kind() annotation.TargetKind {
	return annotation.KindPoint
}

func (t *PointTool) ToLocal(client geometry.Point2D) geometry.Point2D {
	return t.toLocal(client)
}

func (t *PointTool) Start(p geometry.Point2D) {
	t.active = true
	t.at = p
}

func (t *PointTool) Move(p geometry.Point2D, _ PointerEvent) {
	if !t.active {
		return
	}
	t.at = p
}

func (t *PointTool) Up(p geometry.Point2D, _ PointerEvent) (annotation.Target, bool) {
	if !t.active {
		return annotation.Target{}, false
	}
	t.active = false
	return annotation.Target{Kind: annotation.KindPoint, Point: p}, true
}

func (t *PointTool) Active() bool {
	return t.active
}

func (t *PointTool) Cancel() {
	t.active = false
}

func (t *PointTool) Preview() *vector.Node {
	if !t.active {
		return nil
	}
	return &vector.Node{
		Kind:    vector.KindMarker,
		Visible: true,
		Point:   t.at,
		Style:   t.style,
	}
}

func (t *PointTool) EditableShape(a annotation.Annotation) *Editable {
	return NewEditable(a, t.style)
}
