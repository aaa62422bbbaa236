package snippet

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-markup/internal/annotation"
	"image-markup/pkg/geometry"
)

// gradient builds a w x h image whose red channel encodes x and green
// channel encodes y, so crops are verifiable per pixel.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	return img
}

func TestCrop(t *testing.T) {
	src := gradient(100, 80)

	out, err := Crop(src, geometry.NewRect(10, 20, 30, 40))
	require.NoError(t, err)
	assert.Equal(t, 30, out.Bounds().Dx())
	assert.Equal(t, 40, out.Bounds().Dy())

	r, g, _, _ := out.At(0, 0).RGBA()
	assert.Equal(t, uint32(10), r>>8)
	assert.Equal(t, uint32(20), g>>8)
}

func TestCropClampsToBounds(t *testing.T) {
	src := gradient(50, 50)

	out, err := Crop(src, geometry.NewRect(-10, 40, 30, 30))
	require.NoError(t, err)
	assert.Equal(t, 20, out.Bounds().Dx())
	assert.Equal(t, 10, out.Bounds().Dy())
}

func TestCropOutsideBoundsFails(t *testing.T) {
	src := gradient(50, 50)

	_, err := Crop(src, geometry.NewRect(100, 100, 10, 10))
	assert.Error(t, err)

	_, err = Crop(src, geometry.NewRect(10, 10, 0, 0))
	assert.Error(t, err)
}

func TestExtractRectangle(t *testing.T) {
	src := gradient(100, 100)
	target := annotation.Target{
		Kind: annotation.KindRectangle,
		Rect: geometry.NewRect(5, 5, 20, 10),
	}

	out, err := Extract(src, target)
	require.NoError(t, err)
	assert.Equal(t, 20, out.Bounds().Dx())
	assert.Equal(t, 10, out.Bounds().Dy())
}

func TestExtractPointPadsSquare(t *testing.T) {
	src := gradient(200, 200)
	target := annotation.Target{
		Kind:  annotation.KindPoint,
		Point: geometry.Point2D{X: 100, Y: 100},
	}

	out, err := Extract(src, target)
	require.NoError(t, err)
	assert.Equal(t, 48, out.Bounds().Dx())
	assert.Equal(t, 48, out.Bounds().Dy())

	// center of the crop is the marker pixel
	r, g, _, _ := out.At(24, 24).RGBA()
	assert.Equal(t, uint32(100), r>>8)
	assert.Equal(t, uint32(100), g>>8)
}

func TestExtractPointNearEdgeClamps(t *testing.T) {
	src := gradient(200, 200)
	target := annotation.Target{
		Kind:  annotation.KindPoint,
		Point: geometry.Point2D{X: 5, Y: 5},
	}

	out, err := Extract(src, target)
	require.NoError(t, err)
	assert.Equal(t, 29, out.Bounds().Dx())
	assert.Equal(t, 29, out.Bounds().Dy())
}

func TestExtractPolygonUsesBounds(t *testing.T) {
	src := gradient(100, 100)
	target := annotation.Target{
		Kind: annotation.KindPolygon,
		Points: []geometry.Point2D{
			{X: 10, Y: 10}, {X: 40, Y: 10}, {X: 25, Y: 30},
		},
	}

	out, err := Extract(src, target)
	require.NoError(t, err)
	assert.Equal(t, 30, out.Bounds().Dx())
	assert.Equal(t, 20, out.Bounds().Dy())
}

func TestRegionRectUsesBounds(t *testing.T) {
	target := annotation.Target{
		Kind: annotation.KindRectangle,
		Rect: geometry.NewRect(3, 4, 10, 12),
	}
	assert.Equal(t, target.Rect, Region(target))
}

func TestRegionPointPads(t *testing.T) {
	target := annotation.Target{
		Kind:  annotation.KindPoint,
		Point: geometry.Point2D{X: 50, Y: 60},
	}
	r := Region(target)
	assert.Equal(t, geometry.NewRect(26, 36, 48, 48), r)
}

func TestExtractRotatedZeroAngleFallsBackToCrop(t *testing.T) {
	src := gradient(100, 100)

	out, err := ExtractRotated(src, geometry.NewRect(10, 20, 30, 40), 0)
	require.NoError(t, err)
	assert.Equal(t, 30, out.Bounds().Dx())
	assert.Equal(t, 40, out.Bounds().Dy())
}

func TestScaleDownLongestEdge(t *testing.T) {
	src := gradient(200, 100)

	out := Scale(src, 50)
	assert.Equal(t, 50, out.Bounds().Dx())
	assert.Equal(t, 25, out.Bounds().Dy())
}

func TestScalePassthrough(t *testing.T) {
	src := gradient(40, 40)

	assert.Equal(t, image.Image(src), Scale(src, 50))
	assert.Equal(t, image.Image(src), Scale(src, 0))
}
