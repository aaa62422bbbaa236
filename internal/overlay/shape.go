package overlay

import (
	"image-markup/internal/annotation"
	"image-markup/internal/vector"
)

// Shape is a static rendered shape bound 1:1 to an annotation. It is
// owned by the Registry while unselected; selecting it hands ownership
// to the selection machine. The annotation back-reference is a lookup
// link: destroying the shape never destroys the annotation.
type Shape struct {
	ann     annotation.Annotation
	node    *vector.Node
	tracker *Tracker
}

func newShape(a annotation.Annotation, node *vector.Node) *Shape {
	node.AnnotationID = a.ID
	return &Shape{ann: a, node: node, tracker: NewTracker()}
}

// Annotation returns the backing annotation.
func (s *Shape) Annotation() annotation.Annotation {
	return s.ann
}

// ID returns the backing annotation's identifier.
func (s *Shape) ID() string {
	return s.ann.ID
}

// Element returns the rendered scene node.
func (s *Shape) Element() *vector.Node {
	return s.node
}

// setID retags the shape with a new identity and produces the cloned
// annotation value. Geometry is untouched.
func (s *Shape) setID(id string) annotation.Annotation {
	s.ann = s.ann.WithID(id)
	s.node.AnnotationID = id
	return s.ann
}

// detach destroys the shape's tracker. It must run before the node is
// released so no dangling input handler survives the shape.
func (s *Shape) detach() {
	if s.tracker != nil {
		s.tracker.Destroy()
	}
}
