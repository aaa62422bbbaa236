package tools

import (
	"image-markup/internal/annotation"
	"image-markup/internal/vector"
	"image-markup/pkg/geometry"
)

// simplifyTolerance is the Douglas-Peucker tolerance, in image pixels,
// applied to a freehand stroke when the session ends.
const simplifyTolerance = 2.0

// PolygonTool sketches freehand polygon annotations. The stroke is
// collected point by point and simplified on release.
type PolygonTool struct {
	toLocal Converter
	style   vector.Style

	active bool
	points []geometry.Point2D
}

// NewPolygonTool creates a freehand polygon tool.
func NewPolygonTool(toLocal Converter, style vector.Style) *PolygonTool {
	return &PolygonTool{toLocal: toLocal, style: style}
}

func (t *PolygonTool) Kind() annotation.TargetKind {
	return annotation.KindPolygon
}

func (t *PolygonTool) ToLocal(client geometry.Point2D) geometry.Point2D {
	return t.toLocal(client)
}

func (t *PolygonTool) Start(p geometry.Point2D) {
	t.active = true
	t.points = t.points[:0]
	t.points = append(t.points, p)
}

func (t *PolygonTool) Move(p geometry.Point2D, _ PointerEvent) {
	if !t.active {
		return
	}
	t.points = append(t.points, p)
}

func (t *PolygonTool) Up(p geometry.Point2D, _ PointerEvent) (annotation.Target, bool) {
	if !t.active {
		return annotation.Target{}, false
	}
	t.active = false
	t.points = append(t.points, p)

	simplified := geometry.SimplifyPolyline(t.points, simplifyTolerance)
	if len(simplified) < 3 {
		// Degenerate stroke: fall back to a small box around the press
		first := t.points[0]
		simplified = []geometry.Point2D{
			first,
			{X: p.X, Y: first.Y},
			p,
			{X: first.X, Y: p.Y},
		}
	}
	pts := append([]geometry.Point2D(nil), simplified...)
	return annotation.Target{Kind: annotation.KindPolygon, Points: pts}, true
}

func (t *PolygonTool) Active() bool {
	return t.active
}

func (t *PolygonTool) Cancel() {
	t.active = false
	t.points = t.points[:0]
}

func (t *PolygonTool) Preview() *vector.Node {
	if !t.active || len(t.points) < 2 {
		return nil
	}
	return &vector.Node{
		Kind:    vector.KindPolygon,
		Visible: true,
		Points:  append([]geometry.Point2D(nil), t.points...),
		Style:   t.style,
	}
}

func (t *PolygonTool) EditableShape(a annotation.Annotation) *Editable {
	return NewEditable(a, t.style)
}
