// Package viewer provides the pannable, zoomable, rotatable image
// widget the annotation overlay registers with.
package viewer

import (
	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"image-markup/internal/imaging"
	"image-markup/internal/tools"
	"image-markup/internal/vector"
	"image-markup/pkg/geometry"
)

const (
	minZoom  = 0.1
	maxZoom  = 10.0
	zoomStep = 1.25
)

// OverlayHandler is the pointer-event sink the viewer feeds. Consumed
// events do not pan the viewport.
type OverlayHandler interface {
	PointerDown(tools.PointerEvent) bool
	PointerMove(tools.PointerEvent) bool
	PointerUp(tools.PointerEvent) bool
	Group() *vector.Node
	ActiveToolPreview() *vector.Node
}

// Viewer displays a document with pan, zoom, rotation, and horizontal
// flip, and routes pointer input to an attached overlay.
type Viewer struct {
	widget.BaseWidget

	doc *imaging.Document

	zoom     float64
	rotation float64 // degrees
	flipped  bool
	pan      geometry.Point2D // container position of the image origin

	raster  *fynecanvas.Raster
	overlay OverlayHandler

	modifierKey  fyne.KeyName
	modifierDown bool

	changeSeq       int
	changeListeners map[int]func()
	modSeq          int
	modListeners    map[int]func(bool)

	panning  bool
	lastDrag geometry.Point2D
	pressed  bool
}

// New creates an empty viewer. Open loads a document into it.
func New() *Viewer {
	v := &Viewer{
		zoom:            1.0,
		modifierKey:     desktop.KeyShiftLeft,
		changeListeners: make(map[int]func()),
		modListeners:    make(map[int]func(bool)),
	}
	v.raster = fynecanvas.NewRaster(v.draw)
	v.raster.ScaleMode = fynecanvas.ImageScalePixels
	v.ExtendBaseWidget(v)
	return v
}

// Attach connects the overlay that receives pointer events and whose
// scene is rendered above the document.
func (v *Viewer) Attach(h OverlayHandler) {
	v.overlay = h
	v.Refresh()
}

// Open loads a document and resets the view.
func (v *Viewer) Open(doc *imaging.Document) {
	v.doc = doc
	v.zoom = 1.0
	v.rotation = 0
	v.flipped = false
	v.pan = geometry.Point2D{}
	v.notifyChange()
}

// Document returns the loaded document, or nil.
func (v *Viewer) Document() *imaging.Document {
	return v.doc
}

// Zoom returns the current zoom level.
func (v *Viewer) Zoom() float64 {
	return v.zoom
}

// SetZoom clamps and applies a zoom level.
func (v *Viewer) SetZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	v.zoom = zoom
	v.notifyChange()
}

// ZoomIn increases the zoom level one step.
func (v *Viewer) ZoomIn() {
	v.SetZoom(v.zoom * zoomStep)
}

// ZoomOut decreases the zoom level one step.
func (v *Viewer) ZoomOut() {
	v.SetZoom(v.zoom / zoomStep)
}

// Rotation returns the current rotation in degrees.
func (v *Viewer) Rotation() float64 {
	return v.rotation
}

// SetRotation rotates the display around the image origin.
func (v *Viewer) SetRotation(degrees float64) {
	v.rotation = degrees
	v.notifyChange()
}

// Flipped reports whether the display is horizontally mirrored.
func (v *Viewer) Flipped() bool {
	return v.flipped
}

// SetFlipped mirrors the display horizontally.
func (v *Viewer) SetFlipped(flipped bool) {
	v.flipped = flipped
	v.notifyChange()
}

// ContainerSize returns the widget's current size.
func (v *Viewer) ContainerSize() geometry.Size {
	size := v.Size()
	return geometry.Size{Width: float64(size.Width), Height: float64(size.Height)}
}

// ContentFactor returns the loaded image's width in pixels, so that at
// zoom 1 the image spans the container width. Zero without a document.
func (v *Viewer) ContentFactor() float64 {
	if v.doc == nil {
		return 0
	}
	return float64(v.doc.Width())
}

// scale is the image-pixel to container-pixel factor.
func (v *Viewer) scale() float64 {
	factor := v.ContentFactor()
	if factor == 0 {
		factor = 1
	}
	return v.zoom * v.ContainerSize().Width / factor
}

// PixelFromPoint maps an image point to container pixels in the
// unflipped frame.
func (v *Viewer) PixelFromPoint(p geometry.Point2D) geometry.Point2D {
	s := v.scale()
	return geometry.Translation(v.pan.X, v.pan.Y).
		Compose(geometry.Scaling(s, s)).
		Compose(geometry.RotationDegrees(v.rotation)).
		Apply(p)
}

// displayTransform maps image coordinates to on-screen container
// pixels, flip included.
func (v *Viewer) displayTransform() geometry.AffineTransform {
	s := v.scale()
	sx := s
	origin := v.pan
	if v.flipped {
		sx = -s
		origin = origin.MirrorX(v.ContainerSize().Width / 2)
	}
	return geometry.Translation(origin.X, origin.Y).
		Compose(geometry.Scaling(sx, s)).
		Compose(geometry.RotationDegrees(v.rotation))
}

// ImagePointFromClient maps widget coordinates to image pixels.
func (v *Viewer) ImagePointFromClient(p geometry.Point2D) geometry.Point2D {
	inv, ok := v.displayTransform().Inverse()
	if !ok {
		return p
	}
	return inv.Apply(p)
}

// FitBounds adjusts zoom and pan so the image rect fills the viewport
// with a small margin.
func (v *Viewer) FitBounds(r geometry.Rect) {
	if r.Width <= 0 || r.Height <= 0 {
		return
	}
	container := v.ContainerSize()
	factor := v.ContentFactor()
	if factor == 0 || container.Width <= 0 || container.Height <= 0 {
		return
	}

	zoomX := factor / r.Width
	zoomY := container.Height * factor / (container.Width * r.Height)
	zoom := zoomX
	if zoomY < zoom {
		zoom = zoomY
	}
	v.zoom = zoom * 0.95
	if v.zoom < minZoom {
		v.zoom = minZoom
	}
	if v.zoom > maxZoom {
		v.zoom = maxZoom
	}
	v.centerOn(r.Center())
}

// PanTo centers the viewport on the image point without changing zoom.
func (v *Viewer) PanTo(p geometry.Point2D) {
	v.centerOn(p)
}

func (v *Viewer) centerOn(p geometry.Point2D) {
	s := v.scale()
	container := v.ContainerSize()
	target := geometry.Scaling(s, s).
		Compose(geometry.RotationDegrees(v.rotation)).
		Apply(p)
	v.pan = geometry.Point2D{
		X: container.Width/2 - target.X,
		Y: container.Height/2 - target.Y,
	}
	v.notifyChange()
}

// OnChange subscribes to view state changes. The returned function
// cancels the subscription.
func (v *Viewer) OnChange(fn func()) (cancel func()) {
	v.changeSeq++
	id := v.changeSeq
	v.changeListeners[id] = fn
	return func() { delete(v.changeListeners, id) }
}

// OnModifier subscribes to drawing-modifier transitions.
func (v *Viewer) OnModifier(fn func(down bool)) (cancel func()) {
	v.modSeq++
	id := v.modSeq
	v.modListeners[id] = fn
	return func() { delete(v.modListeners, id) }
}

// SetModifierKey changes the key that arms drawing.
func (v *Viewer) SetModifierKey(key fyne.KeyName) {
	v.modifierKey = key
}

// KeyDown feeds a key press from the window.
func (v *Viewer) KeyDown(key *fyne.KeyEvent) {
	if key.Name != v.modifierKey || v.modifierDown {
		return
	}
	v.modifierDown = true
	for _, fn := range v.modListeners {
		fn(true)
	}
}

// KeyUp feeds a key release from the window.
func (v *Viewer) KeyUp(key *fyne.KeyEvent) {
	if key.Name != v.modifierKey || !v.modifierDown {
		return
	}
	v.modifierDown = false
	for _, fn := range v.modListeners {
		fn(false)
	}
}

func (v *Viewer) notifyChange() {
	for _, fn := range v.changeListeners {
		fn()
	}
	v.Refresh()
}

// Refresh redraws the raster.
func (v *Viewer) Refresh() {
	v.raster.Refresh()
	v.BaseWidget.Refresh()
}

// MouseDown implements desktop.Mouseable.
func (v *Viewer) MouseDown(ev *desktop.MouseEvent) {
	pos := geometry.Point2D{X: float64(ev.Position.X), Y: float64(ev.Position.Y)}
	v.pressed = true
	if v.overlay != nil && v.overlay.PointerDown(tools.PointerEvent{Client: pos, Raw: ev}) {
		v.Refresh()
		return
	}
	v.panning = true
	v.lastDrag = pos
}

// MouseUp implements desktop.Mouseable.
func (v *Viewer) MouseUp(ev *desktop.MouseEvent) {
	pos := geometry.Point2D{X: float64(ev.Position.X), Y: float64(ev.Position.Y)}
	v.pressed = false
	if v.overlay != nil && v.overlay.PointerUp(tools.PointerEvent{Client: pos, Raw: ev}) {
		v.Refresh()
	}
	v.panning = false
}

// MouseIn implements desktop.Hoverable.
func (v *Viewer) MouseIn(ev *desktop.MouseEvent) {}

// MouseMoved implements desktop.Hoverable.
func (v *Viewer) MouseMoved(ev *desktop.MouseEvent) {
	pos := geometry.Point2D{X: float64(ev.Position.X), Y: float64(ev.Position.Y)}
	if v.overlay != nil && v.overlay.PointerMove(tools.PointerEvent{Client: pos, Raw: ev}) {
		v.Refresh()
		return
	}
	if v.panning && v.pressed {
		v.pan.X += pos.X - v.lastDrag.X
		v.pan.Y += pos.Y - v.lastDrag.Y
		v.lastDrag = pos
		v.notifyChange()
	}
}

// MouseOut implements desktop.Hoverable.
func (v *Viewer) MouseOut() {
	v.panning = false
}

// Scrolled zooms with the wheel.
func (v *Viewer) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		v.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		v.ZoomOut()
	}
}

// CreateRenderer implements fyne.Widget.
func (v *Viewer) CreateRenderer() fyne.WidgetRenderer {
	return &viewerRenderer{viewer: v}
}

type viewerRenderer struct {
	viewer *Viewer
}

func (r *viewerRenderer) Layout(size fyne.Size) {
	r.viewer.raster.Resize(size)
	r.viewer.notifyChange()
}

func (r *viewerRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *viewerRenderer) Refresh() {
	r.viewer.raster.Refresh()
}

func (r *viewerRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.viewer.raster}
}

func (r *viewerRenderer) Destroy() {}

var _ desktop.Mouseable = (*Viewer)(nil)
var _ desktop.Hoverable = (*Viewer)(nil)
