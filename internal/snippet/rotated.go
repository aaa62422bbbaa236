package snippet

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"image-markup/pkg/geometry"
)

// ExtractRotated cuts an upright crop of r out of src after rotating
// the image by angleDegrees around r's center, so annotations drawn on
// a rotated viewport come out axis-aligned. Zero rotation falls back to
// the plain crop.
func ExtractRotated(src image.Image, r geometry.Rect, angleDegrees float64) (image.Image, error) {
	if angleDegrees == 0 {
		return Crop(src, r)
	}

	mat, err := imageToMat(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	c := r.Center()
	center := image.Point{X: int(c.X), Y: int(c.Y)}
	rotMat := gocv.GetRotationMatrix2D(center, angleDegrees, 1.0)
	defer rotMat.Close()

	rotated := gocv.NewMat()
	defer rotated.Close()
	gocv.WarpAffine(mat, &rotated, rotMat, image.Point{X: mat.Cols(), Y: mat.Rows()})

	crop := image.Rect(int(c.X-r.Width/2), int(c.Y-r.Height/2), int(c.X+r.Width/2), int(c.Y+r.Height/2))
	crop = crop.Intersect(image.Rect(0, 0, rotated.Cols(), rotated.Rows()))
	if crop.Empty() {
		return nil, fmt.Errorf("rotated region outside image bounds")
	}

	region := rotated.Region(crop)
	defer region.Close()
	return matToImage(region)
}
