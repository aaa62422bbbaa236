// Package overlay keeps an annotation scene registered with a pannable,
// zoomable, rotatable image viewport and runs the selection/editing
// state machine over its shapes.
package overlay

import (
	"sync"

	"image-markup/internal/annotation"
	"image-markup/internal/tools"
	"image-markup/internal/vector"
)

// EventType identifies the notifications the overlay emits.
type EventType int

const (
	// EventCreateSelection fires when a new draft annotation is drawn.
	EventCreateSelection EventType = iota
	// EventSelect fires when a shape becomes selected.
	EventSelect
	// EventUpdateTarget fires as an editable shape's geometry changes.
	EventUpdateTarget
	// EventMoveSelection fires when viewport motion moves the selected
	// shape on screen.
	EventMoveSelection
	// EventEnterAnnotation and EventLeaveAnnotation report hover
	// transitions over non-drawing shapes.
	EventEnterAnnotation
	EventLeaveAnnotation
)

// CreateSelectionEvent carries the freshly drawn draft annotation.
type CreateSelectionEvent struct {
	Annotation annotation.Annotation
}

// SelectEvent carries the selected annotation and its renderable element.
type SelectEvent struct {
	Annotation annotation.Annotation
	Element    *vector.Node
}

// UpdateTargetEvent carries an in-progress geometry fragment.
type UpdateTargetEvent struct {
	Element  *vector.Node
	Fragment annotation.Target
}

// MoveSelectionEvent carries the selected element after a viewport move.
type MoveSelectionEvent struct {
	Element *vector.Node
}

// HoverEvent carries the hovered annotation and the raw pointer event.
type HoverEvent struct {
	Annotation annotation.Annotation
	Event      tools.PointerEvent
}

// Listener is called when an event occurs.
type Listener func(data interface{})

// Emitter dispatches overlay events to registered listeners in
// registration order.
type Emitter struct {
	mu        sync.RWMutex
	listeners map[EventType][]Listener
}

// NewEmitter creates an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[EventType][]Listener)}
}

// On registers an event listener for the specified event type.
func (e *Emitter) On(event EventType, listener Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[event] = append(e.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (e *Emitter) Emit(event EventType, data interface{}) {
	e.mu.RLock()
	listeners := e.listeners[event]
	e.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}
