package overlay

import (
	"image-markup/pkg/geometry"
)

// Viewport is the external pan/zoom/rotate-capable image display the
// overlay stays registered with. The overlay never mutates the viewport
// except through the explicit navigation calls.
type Viewport interface {
	// Zoom returns the current zoom level.
	Zoom() float64

	// Rotation returns the current rotation in degrees.
	Rotation() float64

	// Flipped reports whether the display is horizontally flipped.
	Flipped() bool

	// ContainerSize returns the size of the viewport container.
	ContainerSize() geometry.Size

	// ContentFactor returns the content scale factor of the loaded
	// image (image pixels per viewport unit at zoom 1).
	ContentFactor() float64

	// PixelFromPoint converts a viewport point to container pixel
	// coordinates.
	PixelFromPoint(p geometry.Point2D) geometry.Point2D

	// ImagePointFromClient converts window/client coordinates to image
	// pixel coordinates.
	ImagePointFromClient(p geometry.Point2D) geometry.Point2D

	// FitBounds adjusts pan and zoom so the given image rect fills the
	// viewport.
	FitBounds(r geometry.Rect)

	// PanTo centers the viewport on the given image point without
	// changing zoom.
	PanTo(p geometry.Point2D)

	// OnChange subscribes to pan/zoom/rotate/flip/resize/open events.
	// The returned function cancels the subscription.
	OnChange(fn func()) (cancel func())
}

// KeySource reports transitions of the drawing modifier key. It is an
// injected dependency so multiple overlays compose and tests can drive
// key state directly.
type KeySource interface {
	// OnModifier subscribes to modifier key down/up transitions. The
	// returned function cancels the subscription.
	OnModifier(fn func(down bool)) (cancel func())
}
