// Package annotation defines the annotation entity the overlay renders
// and edits. Annotations are immutable values; identity changes produce
// a new value via WithID.
package annotation

import (
	"github.com/google/uuid"

	"image-markup/pkg/geometry"
)

// TargetKind identifies the geometry variant of an annotation target.
type TargetKind int

const (
	KindRectangle TargetKind = iota
	KindPolygon
	KindPoint
)

func (k TargetKind) String() string {
	switch k {
	case KindRectangle:
		return "rectangle"
	case KindPolygon:
		return "polygon"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Target is the geometric payload of an annotation, in image pixel
// coordinates. Exactly one of Rect, Points, or Point is meaningful,
// selected by Kind.
type Target struct {
	Kind   TargetKind         `json:"kind"`
	Rect   geometry.Rect      `json:"rect,omitempty"`
	Points []geometry.Point2D `json:"points,omitempty"`
	Point  geometry.Point2D   `json:"point,omitempty"`
}

// Bounds returns the axis-aligned bounding box of the target.
func (t Target) Bounds() geometry.Rect {
	switch t.Kind {
	case KindRectangle:
		return t.Rect
	case KindPolygon:
		return geometry.BoundingBox(t.Points)
	case KindPoint:
		return geometry.Rect{X: t.Point.X, Y: t.Point.Y}
	default:
		return geometry.Rect{}
	}
}

// Area returns the target's area, used for draw ordering. Points have
// zero area and therefore always render on top.
func (t Target) Area() float64 {
	switch t.Kind {
	case KindRectangle:
		return t.Rect.Area()
	case KindPolygon:
		return geometry.PolygonArea(t.Points)
	default:
		return 0
	}
}

// Contains reports whether the given image point lies inside the target.
// Points use a fixed pixel tolerance.
func (t Target) Contains(p geometry.Point2D) bool {
	const pointTolerance = 6.0
	switch t.Kind {
	case KindRectangle:
		return t.Rect.Contains(p)
	case KindPolygon:
		return geometry.PointInPolygon(p, t.Points)
	case KindPoint:
		return t.Point.Distance(p) <= pointTolerance
	default:
		return false
	}
}

// Transform returns a copy of the target with the affine transform
// applied to its geometry.
func (t Target) Transform(m geometry.AffineTransform) Target {
	out := t
	switch t.Kind {
	case KindRectangle:
		out.Rect = m.ApplyRect(t.Rect)
	case KindPolygon:
		out.Points = make([]geometry.Point2D, len(t.Points))
		for i, p := range t.Points {
			out.Points[i] = m.Apply(p)
		}
	case KindPoint:
		out.Point = m.Apply(t.Point)
	}
	return out
}

// State distinguishes an uncommitted draft selection from a durable
// annotation. Drafts are discarded on deselect instead of re-rendered.
type State int

const (
	Draft State = iota
	Committed
)

func (s State) String() string {
	switch s {
	case Draft:
		return "draft"
	case Committed:
		return "committed"
	default:
		return "unknown"
	}
}

// Annotation is an immutable annotation record with a stable identifier.
type Annotation struct {
	ID       string            `json:"id"`
	Target   Target            `json:"target"`
	Metadata map[string]string `json:"metadata,omitempty"`
	State    State             `json:"state"`
	ReadOnly bool              `json:"readOnly,omitempty"`
}

// New creates a committed annotation with a fresh UUID.
func New(target Target) Annotation {
	return Annotation{
		ID:     uuid.NewString(),
		Target: target,
		State:  Committed,
	}
}

// NewDraft creates a draft annotation with a fresh UUID.
func NewDraft(target Target) Annotation {
	return Annotation{
		ID:     uuid.NewString(),
		Target: target,
		State:  Draft,
	}
}

// WithID returns a copy of the annotation with the identifier replaced.
// Geometry and metadata are unchanged.
func (a Annotation) WithID(id string) Annotation {
	out := a
	out.ID = id
	out.Metadata = cloneMetadata(a.Metadata)
	return out
}

// WithTarget returns a copy of the annotation with the target replaced.
func (a Annotation) WithTarget(t Target) Annotation {
	out := a
	out.Target = t
	out.Metadata = cloneMetadata(a.Metadata)
	return out
}

// Commit returns a committed copy of the annotation.
func (a Annotation) Commit() Annotation {
	out := a
	out.State = Committed
	out.Metadata = cloneMetadata(a.Metadata)
	return out
}

func cloneMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
