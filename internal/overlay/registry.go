package overlay

import (
	"sort"
	"sync"

	"image-markup/internal/annotation"
	"image-markup/internal/tools"
	"image-markup/internal/vector"
	"image-markup/pkg/geometry"
)

// DrawFunc renders a static shape node for an annotation. Supplied by
// the embedding application.
type DrawFunc func(annotation.Annotation) *vector.Node

// Formatter decorates a freshly drawn shape node. Pure: it must only
// touch the node's style.
type Formatter func(*vector.Node, annotation.Annotation)

// Registry owns the static shapes inside the overlay group. Operations
// on identifiers that are not present are no-ops, not failures.
type Registry struct {
	mu sync.RWMutex

	group  *vector.Node
	draw   DrawFunc
	format Formatter

	shapes map[string]*Shape

	// beforeRemove runs before a shape is removed so a live selection
	// never outlives its backing shape. Set by the Overlay.
	beforeRemove func(id string)

	// onPress handles click-to-select on a static shape.
	onPress func(s *Shape, ev tools.PointerEvent)
}

// NewRegistry creates a registry drawing into the given group.
func NewRegistry(group *vector.Node, draw DrawFunc, format Formatter) *Registry {
	return &Registry{
		group:  group,
		draw:   draw,
		format: format,
		shapes: make(map[string]*Shape),
	}
}

// Add draws a static shape for the annotation and inserts it into the
// overlay group. An existing shape for the same identifier is replaced.
func (r *Registry) Add(a annotation.Annotation) *Shape {
	r.removeByID(a.ID)

	node := r.draw(a)
	if r.format != nil {
		r.format(node, a)
	}
	s := newShape(a, node)
	s.tracker.OnPress = func(_ geometry.Point2D, ev tools.PointerEvent) {
		if r.onPress != nil {
			r.onPress(s, ev)
		}
	}
	s.tracker.Arm()

	r.mu.Lock()
	r.shapes[a.ID] = s
	r.mu.Unlock()
	r.group.Append(node)
	return s
}

// Remove deselects (if needed) and removes the shape for the given
// identifier. Unknown identifiers are a no-op.
func (r *Registry) Remove(id string) {
	if r.beforeRemove != nil {
		r.beforeRemove(id)
	}
	r.removeByID(id)
}

// removeByID detaches and removes a shape without the deselect hook.
func (r *Registry) removeByID(id string) {
	r.mu.Lock()
	s, ok := r.shapes[id]
	if ok {
		delete(r.shapes, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	// Tracker dies before the node detaches so no input handler dangles
	s.detach()
	r.group.Remove(s.node)
}

// rekey moves a shape to a new map key after an identifier override.
// The shape's own annotation must already carry the new identifier.
func (r *Registry) rekey(prevID, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shapes[prevID]
	if !ok {
		return
	}
	delete(r.shapes, prevID)
	r.shapes[id] = s
}

// Find returns the shape for the identifier, or nil.
func (r *Registry) Find(id string) *Shape {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.shapes[id]
}

// Detach hands a shape's ownership to the caller: the shape leaves the
// registry and the group, and its click tracker is destroyed. The
// backing annotation is returned untouched. A shape the registry does
// not own is a no-op.
func (r *Registry) Detach(s *Shape) annotation.Annotation {
	r.mu.Lock()
	owned := r.shapes[s.ID()] == s
	if owned {
		delete(r.shapes, s.ID())
	}
	r.mu.Unlock()
	if owned {
		s.detach()
		r.group.Remove(s.node)
	}
	return s.ann
}

// Redraw re-renders all shapes in area-descending order so small
// annotations stay clickable on top of larger ones. The sort key is the
// shape's bounding-box area, not creation order. Non-shape nodes (an
// editable element, for instance) keep their place above the shapes.
func (r *Registry) Redraw() {
	r.mu.Lock()
	ordered := make([]*Shape, 0, len(r.shapes))
	for _, s := range r.shapes {
		ordered = append(ordered, s)
	}
	r.mu.Unlock()

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].node.Bounds().Area() > ordered[j].node.Bounds().Area()
	})

	owned := make(map[*vector.Node]bool, len(ordered))
	for _, s := range ordered {
		owned[s.node] = true
	}
	var others []*vector.Node
	for _, c := range r.group.Children {
		if !owned[c] {
			others = append(others, c)
		}
	}

	r.group.Clear()
	for _, s := range ordered {
		node := r.draw(s.ann)
		if r.format != nil {
			r.format(node, s.ann)
		}
		node.AnnotationID = s.ann.ID
		s.node = node
		r.group.Append(node)
	}
	for _, c := range others {
		r.group.Append(c)
	}
}

// Replace swaps in a new annotation, removing any shape for both the
// previous identity and the new one, then restores area ordering.
// prevID may equal a.ID; the removal is "remove if present" either way.
func (r *Registry) Replace(a annotation.Annotation, prevID string) *Shape {
	if prevID == "" {
		prevID = a.ID
	}
	if r.beforeRemove != nil {
		r.beforeRemove(prevID)
		if prevID != a.ID {
			r.beforeRemove(a.ID)
		}
	}
	r.removeByID(prevID)
	r.removeByID(a.ID)
	s := r.Add(a)
	r.Redraw()
	return s
}

// Init clears all shapes and adds the annotations in caller order. No
// redraw is implied.
func (r *Registry) Init(anns []annotation.Annotation) {
	r.Clear()
	for _, a := range anns {
		r.Add(a)
	}
}

// Clear removes every shape from the registry.
func (r *Registry) Clear() {
	r.mu.Lock()
	all := make([]*Shape, 0, len(r.shapes))
	for _, s := range r.shapes {
		all = append(all, s)
	}
	r.shapes = make(map[string]*Shape)
	r.mu.Unlock()

	for _, s := range all {
		s.detach()
		r.group.Remove(s.node)
	}
}

// Count returns the number of live shapes.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shapes)
}

// Annotations returns the backing annotations of all live shapes in
// group draw order.
func (r *Registry) Annotations() []annotation.Annotation {
	r.mu.RLock()
	byNode := make(map[*vector.Node]annotation.Annotation, len(r.shapes))
	for _, s := range r.shapes {
		byNode[s.node] = s.ann
	}
	r.mu.RUnlock()

	out := make([]annotation.Annotation, 0, len(byNode))
	for _, c := range r.group.Children {
		if a, ok := byNode[c]; ok {
			out = append(out, a)
		}
	}
	return out
}

// shapeAt returns the topmost shape whose geometry contains the local
// point, or nil.
func (r *Registry) shapeAt(p geometry.Point2D) *Shape {
	r.mu.RLock()
	byNode := make(map[*vector.Node]*Shape, len(r.shapes))
	for _, s := range r.shapes {
		byNode[s.node] = s
	}
	r.mu.RUnlock()

	for i := len(r.group.Children) - 1; i >= 0; i-- {
		c := r.group.Children[i]
		s, ok := byNode[c]
		if !ok {
			continue
		}
		if c.HitTest(p) {
			return s
		}
	}
	return nil
}
