package viewer

import (
	"image"
	"image/color"

	"image-markup/internal/vector"
	"image-markup/pkg/colorutil"
	"image-markup/pkg/geometry"
)

// draw is the raster drawing function: document first, then the
// overlay scene, then the active tool's in-progress preview.
func (v *Viewer) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))

	// dark gray background
	bg := color.RGBA{40, 40, 40, 255}
	for i := 0; i < len(output.Pix); i += 4 {
		output.Pix[i+0] = bg.R
		output.Pix[i+1] = bg.G
		output.Pix[i+2] = bg.B
		output.Pix[i+3] = 255
	}

	if v.doc != nil && v.doc.Image != nil {
		v.drawDocument(output, w, h)
	}

	if v.overlay != nil {
		group := v.overlay.Group()
		if group != nil && group.Visible {
			m := group.Transform
			for _, c := range group.Children {
				v.renderNode(output, c, m)
			}
			if preview := v.overlay.ActiveToolPreview(); preview != nil {
				v.renderNode(output, preview, m)
			}
		}
	}
	return output
}

// drawDocument samples the source through the inverse display
// transform so rotation and flip come out right.
func (v *Viewer) drawDocument(output *image.RGBA, w, h int) {
	inv, ok := v.displayTransform().Inverse()
	if !ok {
		return
	}
	src := v.doc.Image
	srcBounds := src.Bounds()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := inv.Apply(geometry.Point2D{X: float64(x), Y: float64(y)})
			srcX := int(p.X) + srcBounds.Min.X
			srcY := int(p.Y) + srcBounds.Min.Y
			if srcX < srcBounds.Min.X || srcX >= srcBounds.Max.X ||
				srcY < srcBounds.Min.Y || srcY >= srcBounds.Max.Y {
				continue
			}
			output.Set(x, y, src.At(srcX, srcY))
		}
	}
}

// renderNode draws one scene node through the accumulated transform.
// Handle nodes are already sized for the current zoom by the editable
// shape, so they render like any other rect.
func (v *Viewer) renderNode(output *image.RGBA, n *vector.Node, m geometry.AffineTransform) {
	if n == nil || !n.Visible {
		return
	}
	switch n.Kind {
	case vector.KindGroup:
		for _, c := range n.Children {
			v.renderNode(output, c, m)
		}
	case vector.KindRect, vector.KindHandle:
		corners := n.Rect.Corners()
		pts := make([]geometry.Point2D, 0, 5)
		for _, c := range corners {
			pts = append(pts, m.Apply(c))
		}
		pts = append(pts, pts[0])
		v.fillQuad(output, pts[:4], n.Style)
		v.strokePath(output, pts, n.Style)
	case vector.KindPolygon:
		if len(n.Points) < 2 {
			return
		}
		pts := make([]geometry.Point2D, 0, len(n.Points)+1)
		for _, p := range n.Points {
			pts = append(pts, m.Apply(p))
		}
		pts = append(pts, pts[0])
		v.strokePath(output, pts, n.Style)
	case vector.KindMarker:
		c := m.Apply(n.Point)
		const arm = 8
		v.drawLine(output, int(c.X-arm), int(c.Y), int(c.X+arm), int(c.Y), n.Style.Stroke, thickness(n.Style))
		v.drawLine(output, int(c.X), int(c.Y-arm), int(c.X), int(c.Y+arm), n.Style.Stroke, thickness(n.Style))
	}
}

func thickness(s vector.Style) int {
	t := int(s.StrokeWidth)
	if t < 1 {
		t = 1
	}
	return t
}

// strokePath draws connected line segments.
func (v *Viewer) strokePath(output *image.RGBA, pts []geometry.Point2D, style vector.Style) {
	if style.Stroke.A == 0 {
		return
	}
	t := thickness(style)
	for i := 0; i+1 < len(pts); i++ {
		v.drawLine(output,
			int(pts[i].X), int(pts[i].Y),
			int(pts[i+1].X), int(pts[i+1].Y),
			style.Stroke, t)
	}
}

// fillQuad scan-fills a convex quadrilateral with the style's fill.
func (v *Viewer) fillQuad(output *image.RGBA, pts []geometry.Point2D, style vector.Style) {
	if style.FillOpacity <= 0 || style.Fill.A == 0 {
		return
	}
	bounds := output.Bounds()
	box := geometry.BoundingBox(pts)
	y0 := max(int(box.Y), bounds.Min.Y)
	y1 := min(int(box.Y+box.Height)+1, bounds.Max.Y)
	x0 := max(int(box.X), bounds.Min.X)
	x1 := min(int(box.X+box.Width)+1, bounds.Max.X)

	alpha := style.FillOpacity
	fill := style.Fill
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if !geometry.PointInPolygon(geometry.Point2D{X: float64(x), Y: float64(y)}, pts) {
				continue
			}
			dr, dg, db, _ := output.At(x, y).RGBA()
			dest := color.RGBA{R: uint8(dr >> 8), G: uint8(dg >> 8), B: uint8(db >> 8), A: 255}
			output.Set(x, y, colorutil.Blend(fill, dest, alpha))
		}
	}
}

// drawLine draws a thick Bresenham line clipped to the output.
func (v *Viewer) drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				px, py := x1+s, y1+t
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					output.Set(px, py, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}
