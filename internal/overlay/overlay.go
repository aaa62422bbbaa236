package overlay

import (
	"image"

	"image-markup/internal/annotation"
	"image-markup/internal/snippet"
	"image-markup/internal/tools"
	"image-markup/internal/vector"
	"image-markup/pkg/geometry"
)

// Options configures an overlay at construction time.
type Options struct {
	// Draw renders a static shape for an annotation. Required.
	Draw DrawFunc

	// Format decorates a freshly drawn shape. Optional.
	Format Formatter

	// ReadOnly makes every selection static and disables drawing.
	ReadOnly bool

	// Headless keeps selections static without disabling drawing
	// input, for layers rendered without direct manipulation.
	Headless bool
}

// Overlay is the façade over the annotation layer: a transformed vector
// group registered with the viewport, a shape registry, the selection
// machine, and the drawing controller, with pointer and event routing
// between them.
type Overlay struct {
	vp    Viewport
	tools *tools.Registry
	group *vector.Node

	events *Emitter
	reg    *Registry
	sel    *Selector
	sync   *TransformSync
	draw   *DrawController

	hoveredID string
	closed    bool
}

// New assembles an overlay over the given viewport, key source, and
// tool registry.
func New(vp Viewport, keys KeySource, toolReg *tools.Registry, opts Options) *Overlay {
	group := vector.NewGroup()
	events := NewEmitter()
	reg := NewRegistry(group, opts.Draw, opts.Format)
	sel := NewSelector(reg, toolReg, group, events)
	sel.SetReadOnly(opts.ReadOnly)
	sel.SetHeadless(opts.Headless)

	o := &Overlay{
		vp:     vp,
		tools:  toolReg,
		group:  group,
		events: events,
		reg:    reg,
		sel:    sel,
	}

	// A removal of the selected annotation deselects first so the
	// selection never outlives its backing shape.
	reg.beforeRemove = func(id string) { sel.DeselectIf(id, true) }
	reg.onPress = func(s *Shape, ev tools.PointerEvent) { sel.Select(s, false) }

	o.sync = NewTransformSync(vp, group, sel, events)
	o.draw = NewDrawController(keys, toolReg, sel)
	if opts.ReadOnly {
		o.draw.Disable()
	}

	toolReg.OnComplete(o.completeDrawing)
	return o
}

// completeDrawing is the sole path by which a freshly sketched target
// enters the selection machine.
func (o *Overlay) completeDrawing(target annotation.Target) {
	o.draw.Disarm()
	a := annotation.NewDraft(target)
	sh := o.reg.Add(a)
	o.sel.Select(sh, false)
	o.events.Emit(EventCreateSelection, CreateSelectionEvent{Annotation: a})
}

// On registers an event listener.
func (o *Overlay) On(event EventType, fn Listener) {
	o.events.On(event, fn)
}

// Group returns the overlay's root vector group for rendering.
func (o *Overlay) Group() *vector.Node {
	return o.group
}

// Init replaces the annotation set. An existing selection is dropped.
func (o *Overlay) Init(anns []annotation.Annotation) {
	o.sel.Deselect(true)
	o.reg.Init(anns)
}

// Add inserts a shape for the annotation. Adding under the selected
// identity deselects first so the selection never coexists with a
// registry shape for the same annotation.
func (o *Overlay) Add(a annotation.Annotation) {
	o.sel.DeselectIf(a.ID, false)
	o.reg.Add(a)
}

// Remove removes the annotation's shape, deselecting it first when
// selected. Unknown identifiers are no-ops.
func (o *Overlay) Remove(id string) {
	o.reg.Remove(id)
}

// Replace swaps an annotation's shape for a new one, optionally under a
// previous identity, and restores area ordering.
func (o *Overlay) Replace(a annotation.Annotation, prevID string) {
	o.reg.Replace(a, prevID)
}

// Annotations lists the registry's annotations in draw order. A live
// editable selection is not included.
func (o *Overlay) Annotations() []annotation.Annotation {
	return o.reg.Annotations()
}

// Count returns the number of registered shapes.
func (o *Overlay) Count() int {
	return o.reg.Count()
}

// SelectByID selects the shape for the identifier. Unknown identifiers
// are no-ops.
func (o *Overlay) SelectByID(id string) {
	if sh := o.reg.Find(id); sh != nil {
		o.sel.Select(sh, false)
	}
}

// Deselect drops the selection, if any.
func (o *Overlay) Deselect() {
	o.sel.Deselect(false)
}

// Selection returns the selected annotation and its renderable element.
func (o *Overlay) Selection() (annotation.Annotation, *vector.Node, bool) {
	return o.sel.Selection()
}

// CommitSelection promotes a draft selection to a committed annotation
// and returns it. A committed or absent selection reports false.
func (o *Overlay) CommitSelection() (annotation.Annotation, bool) {
	a, _, ok := o.sel.Selection()
	if !ok || a.State != annotation.Draft {
		return annotation.Annotation{}, false
	}
	committed := a.Commit()
	if o.sel.State() == StateEditable {
		committed = committed.WithTarget(o.sel.editable.Target())
	}
	o.sel.Deselect(true)
	o.reg.removeByID(a.ID)
	sh := o.reg.Add(committed)
	o.reg.Redraw()
	o.sel.Select(sh, true)
	return committed, true
}

// OverrideID forces a new identifier onto the annotation's shape,
// selected or not, and returns the cloned annotation. Geometry is
// untouched.
func (o *Overlay) OverrideID(prevID, id string) (annotation.Annotation, bool) {
	if a, _, ok := o.sel.Selection(); ok && a.ID == prevID {
		ann, overridden := o.sel.OverrideID(id)
		// a static selection's shape still lives in the registry, so
		// its map key must follow the identity
		if overridden && o.sel.State() == StateStatic {
			o.reg.rekey(prevID, id)
		}
		return ann, overridden
	}
	sh := o.reg.Find(prevID)
	if sh == nil {
		return annotation.Annotation{}, false
	}
	a := sh.setID(id)
	o.reg.rekey(prevID, id)
	return a, true
}

// ToolKinds lists the registered drawing tool kinds.
func (o *Overlay) ToolKinds() []annotation.TargetKind {
	return o.tools.Kinds()
}

// SetTool switches the active drawing tool. Unknown kinds report false.
func (o *Overlay) SetTool(kind annotation.TargetKind) bool {
	return o.tools.SetActive(kind)
}

// EnableDrawing lets the modifier key arm drawing again.
func (o *Overlay) EnableDrawing() {
	o.draw.Enable()
}

// DisableDrawing disarms drawing and cancels an in-flight session.
func (o *Overlay) DisableDrawing() {
	o.draw.Disable()
}

// Scale returns the overlay's current image-to-screen scale factor.
func (o *Overlay) Scale() float64 {
	return o.sync.Scale()
}

// FitToAnnotation fits the viewport to the annotation's bounds.
// Unknown identifiers are no-ops.
func (o *Overlay) FitToAnnotation(id string) {
	if sh := o.reg.Find(id); sh != nil {
		o.vp.FitBounds(sh.Annotation().Target.Bounds())
	}
}

// PanToAnnotation centers the viewport on the annotation without
// changing zoom.
func (o *Overlay) PanToAnnotation(id string) {
	if sh := o.reg.Find(id); sh != nil {
		o.vp.PanTo(sh.Annotation().Target.Bounds().Center())
	}
}

// Snippet extracts the image pixels under the current selection. On a
// rotated viewport the region is warped upright first so the snippet
// matches what the user sees. Returns false when no selection exists.
func (o *Overlay) Snippet(src image.Image) (image.Image, bool) {
	a, _, ok := o.sel.Selection()
	if !ok {
		return nil, false
	}
	target := a.Target
	if o.sel.State() == StateEditable {
		target = o.sel.editable.Target()
	}

	var img image.Image
	var err error
	if angle := o.vp.Rotation(); angle != 0 {
		img, err = snippet.ExtractRotated(src, snippet.Region(target), angle)
	} else {
		img, err = snippet.Extract(src, target)
	}
	if err != nil {
		return nil, false
	}
	return img, true
}

// SetVisible toggles the whole overlay's visibility.
func (o *Overlay) SetVisible(visible bool) {
	o.group.Visible = visible
}

// Visible reports the overlay group's visibility.
func (o *Overlay) Visible() bool {
	return o.group.Visible
}

// ActiveToolPreview returns the in-progress drawing geometry, or nil
// when no session is active.
func (o *Overlay) ActiveToolPreview() *vector.Node {
	tool := o.tools.Active()
	if tool == nil {
		return nil
	}
	return tool.Preview()
}

// Close tears the overlay down: subscriptions cancelled, selection
// dropped, shapes and trackers destroyed.
func (o *Overlay) Close() {
	if o.closed {
		return
	}
	o.closed = true
	o.sync.Close()
	o.draw.Close()
	o.sel.Deselect(true)
	o.reg.Clear()
}

// PointerDown routes a press. It reports whether the overlay consumed
// the event; unconsumed presses belong to viewport navigation.
func (o *Overlay) PointerDown(ev tools.PointerEvent) bool {
	if o.closed {
		return false
	}
	if o.draw.Press(ev) {
		return true
	}
	local := o.vp.ImagePointFromClient(ev.Client)
	if tr := o.sel.EditableTracker(); tr != nil && tr.Armed() {
		tr.Press(local, ev)
		return true
	}
	if sh := o.reg.shapeAt(local); sh != nil {
		sh.tracker.Press(local, ev)
		return true
	}
	// press on empty space drops the selection and falls through to
	// navigation
	o.sel.Deselect(false)
	return false
}

// PointerMove routes pointer motion: an active drawing session first,
// then an edit drag, then hover tracking.
func (o *Overlay) PointerMove(ev tools.PointerEvent) bool {
	if o.closed {
		return false
	}
	if o.draw.Drawing() {
		o.draw.Move(ev)
		return true
	}
	local := o.vp.ImagePointFromClient(ev.Client)
	if tr := o.sel.EditableTracker(); tr != nil {
		if o.sel.EditableDragging() {
			tr.Move(local, ev)
			return true
		}
		// the edit tracker is armed only while the pointer is over the
		// editable element, so navigation resumes the instant it leaves
		if o.sel.EditableHitTest(local) {
			tr.Arm()
		} else {
			tr.Disarm()
		}
	}
	o.trackHover(local, ev)
	return false
}

// PointerUp routes a release to the drawing session or edit drag.
func (o *Overlay) PointerUp(ev tools.PointerEvent) bool {
	if o.closed {
		return false
	}
	if o.draw.Drawing() {
		o.draw.Up(ev)
		return true
	}
	if tr := o.sel.EditableTracker(); tr != nil && o.sel.EditableDragging() {
		tr.Release(o.vp.ImagePointFromClient(ev.Client), ev)
		return true
	}
	return false
}

func (o *Overlay) trackHover(local geometry.Point2D, ev tools.PointerEvent) {
	var id string
	sh := o.reg.shapeAt(local)
	if sh != nil {
		id = sh.ID()
	}
	if id == o.hoveredID {
		return
	}
	if o.hoveredID != "" {
		if prev := o.reg.Find(o.hoveredID); prev != nil {
			o.events.Emit(EventLeaveAnnotation, HoverEvent{Annotation: prev.Annotation(), Event: ev})
		}
	}
	o.hoveredID = id
	if sh != nil {
		o.events.Emit(EventEnterAnnotation, HoverEvent{Annotation: sh.Annotation(), Event: ev})
	}
}
