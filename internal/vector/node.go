// Package vector provides the retained scene nodes the overlay renders.
// The overlay root is a group node whose transform tracks the viewport;
// children are shape nodes in image pixel coordinates.
package vector

import (
	"image/color"

	"image-markup/pkg/geometry"
)

// NodeKind identifies what a node renders.
type NodeKind int

const (
	KindGroup NodeKind = iota
	KindRect
	KindPolygon
	KindMarker // point annotation, drawn as a cross-hair marker
	KindHandle // manipulation handle on an editable shape
)

func (k NodeKind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindRect:
		return "rect"
	case KindPolygon:
		return "polygon"
	case KindMarker:
		return "marker"
	case KindHandle:
		return "handle"
	default:
		return "unknown"
	}
}

// Style holds the visual attributes of a node.
type Style struct {
	Stroke      color.RGBA
	StrokeWidth float64
	Fill        color.RGBA
	FillOpacity float64
}

// Node is a single element in the overlay scene. Shape geometry is in
// image pixel coordinates; only the root group carries a transform.
type Node struct {
	Kind NodeKind

	// AnnotationID tags shape nodes with the identity of the annotation
	// they render. Empty for groups and handles.
	AnnotationID string

	Rect   geometry.Rect
	Points []geometry.Point2D
	Point  geometry.Point2D

	Style   Style
	Visible bool

	// Transform maps node-local coordinates outward. Identity for
	// everything except the overlay root group.
	Transform geometry.AffineTransform

	// HandleScale is the reciprocal zoom applied to handle children so
	// their size stays constant on screen.
	HandleScale float64

	Children []*Node
}

// NewGroup creates an empty visible group node.
func NewGroup() *Node {
	return &Node{
		Kind:        KindGroup,
		Visible:     true,
		Transform:   geometry.Identity(),
		HandleScale: 1,
	}
}

// Append adds a child to the end of the group (topmost in draw order).
func (n *Node) Append(child *Node) {
	n.Children = append(n.Children, child)
}

// Remove detaches a child from the group. Unknown children are ignored.
func (n *Node) Remove(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return
		}
	}
}

// Clear removes all children.
func (n *Node) Clear() {
	n.Children = nil
}

// Bounds returns the node's axis-aligned bounding box in its own
// coordinate space (ignoring the transform).
func (n *Node) Bounds() geometry.Rect {
	switch n.Kind {
	case KindRect, KindHandle:
		return n.Rect
	case KindPolygon:
		return geometry.BoundingBox(n.Points)
	case KindMarker:
		return geometry.Rect{X: n.Point.X, Y: n.Point.Y}
	case KindGroup:
		var out geometry.Rect
		first := true
		for _, c := range n.Children {
			if !c.Visible {
				continue
			}
			if first {
				out = c.Bounds()
				first = false
				continue
			}
			out = out.Union(c.Bounds())
		}
		return out
	default:
		return geometry.Rect{}
	}
}

// HitTest reports whether p (in the node's coordinate space) hits the
// node or, for groups, any visible child.
func (n *Node) HitTest(p geometry.Point2D) bool {
	if !n.Visible {
		return false
	}
	switch n.Kind {
	case KindRect, KindHandle:
		return n.Rect.Contains(p)
	case KindPolygon:
		return geometry.PointInPolygon(p, n.Points)
	case KindMarker:
		const tolerance = 6.0
		return n.Point.Distance(p) <= tolerance
	case KindGroup:
		for _, c := range n.Children {
			if c.HitTest(p) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
