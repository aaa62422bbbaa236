// Package snippet extracts image pixel regions for annotation targets.
package snippet

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"image-markup/internal/annotation"
	"image-markup/pkg/geometry"
)

// pointPadding is the half-extent, in image pixels, of the square
// extracted around a point target.
const pointPadding = 24.0

// Region returns the axis-aligned crop rect for a target. Point targets
// yield a fixed-size square around the marker.
func Region(t annotation.Target) geometry.Rect {
	if t.Kind == annotation.KindPoint {
		return geometry.Rect{
			X:      t.Point.X - pointPadding,
			Y:      t.Point.Y - pointPadding,
			Width:  2 * pointPadding,
			Height: 2 * pointPadding,
		}
	}
	return t.Bounds()
}

// Extract crops the axis-aligned bounds of the target out of src. The
// crop is clamped to the source bounds; a target entirely outside them
// is an error.
func Extract(src image.Image, t annotation.Target) (image.Image, error) {
	return Crop(src, Region(t))
}

// Crop extracts an axis-aligned rect, clamped to the source bounds.
func Crop(src image.Image, r geometry.Rect) (image.Image, error) {
	sb := src.Bounds()
	x0 := max(int(r.X), sb.Min.X)
	y0 := max(int(r.Y), sb.Min.Y)
	x1 := min(int(r.X+r.Width+0.5), sb.Max.X)
	y1 := min(int(r.Y+r.Height+0.5), sb.Max.Y)
	if x1 <= x0 || y1 <= y0 {
		return nil, fmt.Errorf("region (%.0f,%.0f %gx%g) outside image bounds %v",
			r.X, r.Y, r.Width, r.Height, sb)
	}

	out := image.NewRGBA(image.Rect(0, 0, x1-x0, y1-y0))
	xdraw.Draw(out, out.Bounds(), src, image.Point{X: x0, Y: y0}, xdraw.Src)
	return out, nil
}

// Scale resizes the snippet so its longest edge is maxDim pixels,
// preserving aspect ratio. Smaller images pass through untouched.
func Scale(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return src
	}
	if w >= h {
		h = h * maxDim / w
		w = maxDim
	} else {
		w = w * maxDim / h
		h = maxDim
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), src, b, xdraw.Over, nil)
	return out
}
