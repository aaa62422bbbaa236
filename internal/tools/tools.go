// Package tools provides the drawing-tool subsystem: geometry-specific
// tools for sketching new annotations and editable shapes for modifying
// existing ones. Adding a new geometry kind is a Register call, not a
// change to the overlay state machine.
package tools

import (
	"image-markup/internal/annotation"
	"image-markup/internal/vector"
	"image-markup/pkg/geometry"
)

// PointerEvent carries the raw toolkit input event alongside the
// client-space position it occurred at. Raw is opaque to the tools.
type PointerEvent struct {
	Client geometry.Point2D
	Raw    any
}

// Converter maps client/window coordinates into overlay-local (image
// pixel) coordinates. The viewer supplies one per overlay.
type Converter func(client geometry.Point2D) geometry.Point2D

// Tool knows how to sketch one geometry kind and how to build an
// editable shape for annotations of that kind.
type Tool interface {
	// Kind returns the target kind this tool produces.
	Kind() annotation.TargetKind

	// ToLocal converts client coordinates to overlay-local coordinates.
	ToLocal(client geometry.Point2D) geometry.Point2D

	// Start begins a drawing session at the given local point.
	Start(p geometry.Point2D)

	// Move advances an active session.
	Move(p geometry.Point2D, ev PointerEvent)

	// Up finalizes the session. The boolean reports whether a target
	// was produced; a session always ends after Up.
	Up(p geometry.Point2D, ev PointerEvent) (annotation.Target, bool)

	// Active reports whether a drawing session is in progress.
	Active() bool

	// Cancel discards any in-progress session without producing a target.
	Cancel()

	// Preview returns a node rendering the in-progress geometry, or nil
	// when no session is active.
	Preview() *vector.Node

	// EditableShape builds a handle-bearing editable shape for an
	// existing annotation of this tool's kind.
	EditableShape(a annotation.Annotation) *Editable
}

// Registry maps geometry kinds to tools and tracks the active tool.
type Registry struct {
	tools      map[annotation.TargetKind]Tool
	order      []annotation.TargetKind
	active     annotation.TargetKind
	hasActive  bool
	onComplete func(annotation.Target)
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[annotation.TargetKind]Tool)}
}

// Register adds a tool. The first registered tool becomes active.
func (r *Registry) Register(t Tool) {
	if _, ok := r.tools[t.Kind()]; !ok {
		r.order = append(r.order, t.Kind())
	}
	r.tools[t.Kind()] = t
	if !r.hasActive {
		r.active = t.Kind()
		r.hasActive = true
	}
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []annotation.TargetKind {
	out := make([]annotation.TargetKind, len(r.order))
	copy(out, r.order)
	return out
}

// For returns the tool for the given kind, or nil.
func (r *Registry) For(kind annotation.TargetKind) Tool {
	return r.tools[kind]
}

// Active returns the currently active tool, or nil if none registered.
func (r *Registry) Active() Tool {
	if !r.hasActive {
		return nil
	}
	return r.tools[r.active]
}

// SetActive switches the active tool. Unknown kinds are ignored and
// reported false.
func (r *Registry) SetActive(kind annotation.TargetKind) bool {
	if _, ok := r.tools[kind]; !ok {
		return false
	}
	r.active = kind
	return true
}

// OnComplete registers the drawing-session-completed listener.
func (r *Registry) OnComplete(fn func(annotation.Target)) {
	r.onComplete = fn
}

// Up forwards the release to the active tool and, when a target is
// produced, emits the completion notification.
func (r *Registry) Up(p geometry.Point2D, ev PointerEvent) {
	tool := r.Active()
	if tool == nil || !tool.Active() {
		return
	}
	target, done := tool.Up(p, ev)
	if done && r.onComplete != nil {
		r.onComplete(target)
	}
}
