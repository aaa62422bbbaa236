package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-markup/internal/annotation"
	"image-markup/pkg/geometry"
)

func applyAll(pts []geometry.Point2D, m geometry.AffineTransform) []geometry.Point2D {
	out := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		out[i] = m.Apply(p)
	}
	return out
}

func TestEstimateExactMapping(t *testing.T) {
	src := []geometry.Point2D{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100},
		{X: 0, Y: 100}, {X: 50, Y: 25}, {X: 73, Y: 88},
	}
	truth := geometry.Translation(12, -7).
		Compose(geometry.Scaling(1.5, 1.5)).
		Compose(geometry.RotationDegrees(10))
	dst := applyAll(src, truth)

	res, err := Estimate(src, dst, Options{Seed: 1})
	require.NoError(t, err)
	assert.Len(t, res.Inliers, len(src))
	assert.InDelta(t, 0, res.MeanError, 1e-6)

	for i := range src {
		got := res.Transform.Apply(src[i])
		assert.InDelta(t, dst[i].X, got.X, 1e-6)
		assert.InDelta(t, dst[i].Y, got.Y, 1e-6)
	}
}

func TestEstimateRejectsOutliers(t *testing.T) {
	src := []geometry.Point2D{
		{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 150},
		{X: 0, Y: 150}, {X: 100, Y: 75}, {X: 30, Y: 120},
		{X: 170, Y: 40}, {X: 60, Y: 10},
	}
	truth := geometry.Translation(-20, 35)
	dst := applyAll(src, truth)

	// two badly matched landmarks
	dst[2] = geometry.Point2D{X: 500, Y: 500}
	dst[5] = geometry.Point2D{X: -300, Y: 0}

	res, err := Estimate(src, dst, Options{Seed: 7})
	require.NoError(t, err)
	assert.Len(t, res.Inliers, 6)
	assert.NotContains(t, res.Inliers, 2)
	assert.NotContains(t, res.Inliers, 5)

	got := res.Transform.Apply(geometry.Point2D{X: 100, Y: 100})
	assert.InDelta(t, 80.0, got.X, 1e-6)
	assert.InDelta(t, 135.0, got.Y, 1e-6)
}

func TestEstimateInputValidation(t *testing.T) {
	pts := []geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 0}}

	_, err := Estimate(pts, pts[:1], Options{})
	assert.Error(t, err)

	_, err = Estimate(pts, pts, Options{})
	assert.Error(t, err)
}

func TestEstimateNoConsensus(t *testing.T) {
	// collinear landmarks never yield a usable sample
	src := []geometry.Point2D{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0},
	}
	dst := []geometry.Point2D{
		{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 1, Y: 9}, {X: 7, Y: 2},
	}

	_, err := Estimate(src, dst, Options{Seed: 3, Iterations: 50})
	assert.Error(t, err)
}

func TestApplyMapsGeometryKeepsIdentity(t *testing.T) {
	anns := []annotation.Annotation{
		annotation.New(annotation.Target{
			Kind: annotation.KindRectangle,
			Rect: geometry.NewRect(10, 10, 20, 20),
		}),
		annotation.New(annotation.Target{
			Kind:  annotation.KindPoint,
			Point: geometry.Point2D{X: 5, Y: 5},
		}),
	}
	m := geometry.Translation(100, 0)

	out := Apply(anns, m)
	require.Len(t, out, 2)

	assert.Equal(t, anns[0].ID, out[0].ID)
	assert.Equal(t, 110.0, out[0].Target.Rect.X)
	assert.Equal(t, 105.0, out[1].Target.Point.X)

	// inputs are untouched
	assert.Equal(t, 10.0, anns[0].Target.Rect.X)
}
