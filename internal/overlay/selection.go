package overlay

import (
	"image-markup/internal/annotation"
	"image-markup/internal/tools"
	"image-markup/internal/vector"
	"image-markup/pkg/geometry"
)

// SelState names the selection machine's state.
type SelState int

const (
	// StateIdle means no selection.
	StateIdle SelState = iota
	// StateStatic means a read-only or headless selection: the static
	// shape stays in place.
	StateStatic
	// StateEditable means the static shape was swapped for an editable
	// one with manipulation handles.
	StateEditable
)

func (s SelState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStatic:
		return "static"
	case StateEditable:
		return "editable"
	default:
		return "unknown"
	}
}

// Selector owns at most one selected shape and runs the select/deselect
// transitions. Transitions never raise user-visible errors; malformed
// input degrades to a no-op.
type Selector struct {
	reg    *Registry
	tools  *tools.Registry
	group  *vector.Node
	events *Emitter

	readOnly bool
	headless bool

	state       SelState
	current     annotation.Annotation
	staticShape *Shape
	editable    *tools.Editable
	tracker     *Tracker
	handleScale float64
}

// NewSelector creates an idle selector.
func NewSelector(reg *Registry, tr *tools.Registry, group *vector.Node, events *Emitter) *Selector {
	return &Selector{
		reg:         reg,
		tools:       tr,
		group:       group,
		events:      events,
		handleScale: 1,
	}
}

// SetReadOnly switches the layer-wide read-only mode. An existing
// editable selection is unaffected until the next transition.
func (s *Selector) SetReadOnly(ro bool) {
	s.readOnly = ro
}

// SetHeadless switches headless mode, in which selections never become
// editable.
func (s *Selector) SetHeadless(headless bool) {
	s.headless = headless
}

// State returns the current machine state.
func (s *Selector) State() SelState {
	return s.state
}

// Active reports whether any selection exists.
func (s *Selector) Active() bool {
	return s.state != StateIdle
}

// Selection returns the selected annotation and its renderable element.
func (s *Selector) Selection() (annotation.Annotation, *vector.Node, bool) {
	switch s.state {
	case StateStatic:
		return s.current, s.staticShape.Element(), true
	case StateEditable:
		return s.current, s.editable.Element(), true
	default:
		return annotation.Annotation{}, nil, false
	}
}

// SelectedElement returns the renderable element of the selection, or
// nil when idle.
func (s *Selector) SelectedElement() *vector.Node {
	_, el, _ := s.Selection()
	return el
}

// Select makes the shape's annotation the selection. Selecting the
// already selected annotation is a no-op; selecting while another shape
// is selected deselects it first, synchronously. Read-only annotations,
// a read-only layer, or headless mode keep the static shape; otherwise
// the static shape is swapped for an editable one.
func (s *Selector) Select(sh *Shape, silent bool) {
	if sh == nil {
		return
	}
	a := sh.Annotation()
	if s.state != StateIdle {
		if s.current.ID == a.ID {
			return
		}
		s.Deselect(false)
	}

	if a.ReadOnly || s.readOnly || s.headless {
		s.state = StateStatic
		s.current = a
		s.staticShape = sh
		if !silent {
			s.events.Emit(EventSelect, SelectEvent{Annotation: a, Element: sh.Element()})
		}
		return
	}

	tool := s.tools.For(a.Target.Kind)
	if tool == nil {
		// No tool can edit this geometry; fall back to static selection
		s.state = StateStatic
		s.current = a
		s.staticShape = sh
		if !silent {
			s.events.Emit(EventSelect, SelectEvent{Annotation: a, Element: sh.Element()})
		}
		return
	}

	s.reg.Detach(sh)

	ed := tool.EditableShape(a)
	ed.SetHandleScale(s.handleScale)
	ed.OnUpdate(func(fragment annotation.Target) {
		s.events.Emit(EventUpdateTarget, UpdateTargetEvent{Element: ed.Element(), Fragment: fragment})
	})
	s.group.Append(ed.Element())

	tr := NewTracker()
	tr.OnPress = func(p geometry.Point2D, ev tools.PointerEvent) { ed.Press(p) }
	tr.OnMove = func(p geometry.Point2D, ev tools.PointerEvent) { ed.Drag(p) }
	tr.OnRelease = func(p geometry.Point2D, ev tools.PointerEvent) { ed.Release(p) }

	s.state = StateEditable
	s.current = a
	s.editable = ed
	s.tracker = tr
	s.staticShape = nil

	if !silent {
		s.events.Emit(EventSelect, SelectEvent{Annotation: a, Element: ed.Element()})
	}
}

// Deselect returns to Idle. A draft selection stops the active drawing
// tool and is discarded; a committed editable selection re-materializes
// as a static shape carrying the edited geometry and, unless skipped,
// triggers a full redraw to restore area ordering.
func (s *Selector) Deselect(skipRedraw bool) {
	if s.state == StateIdle {
		return
	}
	a := s.current

	if s.state == StateStatic {
		s.reset()
		return
	}

	if a.State == annotation.Draft {
		if tool := s.tools.Active(); tool != nil {
			tool.Cancel()
		}
	}

	// Interactive trackers die before anything else proceeds
	s.tracker.Destroy()
	s.group.Remove(s.editable.Element())
	edited := s.editable.Target()
	s.editable.Destroy()

	if a.State != annotation.Draft {
		s.reg.Add(a.WithTarget(edited))
		if !skipRedraw {
			s.reg.Redraw()
		}
	}
	s.reset()
}

// DeselectIf deselects only when id is the selected annotation.
func (s *Selector) DeselectIf(id string, skipRedraw bool) {
	if s.state != StateIdle && s.current.ID == id {
		s.Deselect(skipRedraw)
	}
}

// SetHandleScale stores the reciprocal-zoom handle scale and applies it
// to a live editable shape.
func (s *Selector) SetHandleScale(scale float64) {
	if scale <= 0 {
		return
	}
	s.handleScale = scale
	if s.state == StateEditable {
		s.editable.SetHandleScale(scale)
	}
}

// OverrideID forces a new identifier onto the selected shape and
// returns the cloned annotation. Geometry is untouched. Returns false
// when idle.
func (s *Selector) OverrideID(id string) (annotation.Annotation, bool) {
	switch s.state {
	case StateStatic:
		s.current = s.staticShape.setID(id)
		return s.current, true
	case StateEditable:
		s.current = s.current.WithID(id)
		s.editable.Element().AnnotationID = id
		return s.current, true
	default:
		return annotation.Annotation{}, false
	}
}

// EditableHitTest reports whether the local point is over the editable
// element's interactive region. Always false outside StateEditable.
func (s *Selector) EditableHitTest(p geometry.Point2D) bool {
	return s.state == StateEditable && s.editable.HitTest(p)
}

// EditableTracker returns the selection's pointer tracker, or nil.
func (s *Selector) EditableTracker() *Tracker {
	if s.state != StateEditable {
		return nil
	}
	return s.tracker
}

// EditableDragging reports whether an edit drag is in progress.
func (s *Selector) EditableDragging() bool {
	return s.state == StateEditable && s.editable.Dragging()
}

func (s *Selector) reset() {
	s.state = StateIdle
	s.current = annotation.Annotation{}
	s.staticShape = nil
	s.editable = nil
	s.tracker = nil
}
