package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-markup/internal/annotation"
	"image-markup/internal/vector"
	"image-markup/pkg/geometry"
)

func localIdentity(p geometry.Point2D) geometry.Point2D { return p }

func TestRegistryFirstRegisteredIsActive(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewRectangleTool(localIdentity, vector.Style{}))
	reg.Register(NewPolygonTool(localIdentity, vector.Style{}))

	active := reg.Active()
	require.NotNil(t, active)
	assert.Equal(t, annotation.KindRectangle, active.Kind())
	assert.Equal(t, []annotation.TargetKind{annotation.KindRectangle, annotation.KindPolygon}, reg.Kinds())
}

func TestRegistrySetActiveUnknownKind(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewRectangleTool(localIdentity, vector.Style{}))
	assert.False(t, reg.SetActive(annotation.KindPoint))
	assert.True(t, reg.SetActive(annotation.KindRectangle))
}

func TestRegistryCompletionNotification(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewRectangleTool(localIdentity, vector.Style{}))

	var completed []annotation.Target
	reg.OnComplete(func(target annotation.Target) {
		completed = append(completed, target)
	})

	tool := reg.Active()
	tool.Start(geometry.Point2D{X: 0, Y: 0})
	tool.Move(geometry.Point2D{X: 5, Y: 5}, PointerEvent{})
	reg.Up(geometry.Point2D{X: 10, Y: 20}, PointerEvent{})

	require.Len(t, completed, 1)
	assert.Equal(t, annotation.KindRectangle, completed[0].Kind)
	assert.Equal(t, 10.0, completed[0].Rect.Width)
	assert.Equal(t, 20.0, completed[0].Rect.Height)
	assert.False(t, tool.Active())
}

func TestRegistryUpWithoutSession(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewRectangleTool(localIdentity, vector.Style{}))

	fired := false
	reg.OnComplete(func(annotation.Target) { fired = true })
	reg.Up(geometry.Point2D{}, PointerEvent{})
	assert.False(t, fired)
}

func TestRectangleToolMinimumExtent(t *testing.T) {
	tool := NewRectangleTool(localIdentity, vector.Style{})
	tool.Start(geometry.Point2D{X: 5, Y: 5})
	target, ok := tool.Up(geometry.Point2D{X: 5, Y: 5}, PointerEvent{})
	require.True(t, ok)
	assert.Equal(t, minShapeExtent, target.Rect.Width)
	assert.Equal(t, minShapeExtent, target.Rect.Height)
}

func TestRectangleToolCancel(t *testing.T) {
	tool := NewRectangleTool(localIdentity, vector.Style{})
	tool.Start(geometry.Point2D{X: 0, Y: 0})
	require.True(t, tool.Active())
	require.NotNil(t, tool.Preview())

	tool.Cancel()
	assert.False(t, tool.Active())
	assert.Nil(t, tool.Preview())

	_, ok := tool.Up(geometry.Point2D{X: 9, Y: 9}, PointerEvent{})
	assert.False(t, ok)
}

func TestPolygonToolSimplifiesStroke(t *testing.T) {
	tool := NewPolygonTool(localIdentity, vector.Style{})
	tool.Start(geometry.Point2D{X: 0, Y: 0})
	// walk a right angle with noisy collinear points
	for x := 1.0; x <= 50; x++ {
		tool.Move(geometry.Point2D{X: x, Y: 0}, PointerEvent{})
	}
	for y := 1.0; y <= 50; y++ {
		tool.Move(geometry.Point2D{X: 50, Y: y}, PointerEvent{})
	}
	target, ok := tool.Up(geometry.Point2D{X: 50, Y: 50}, PointerEvent{})
	require.True(t, ok)
	assert.Equal(t, annotation.KindPolygon, target.Kind)
	assert.Equal(t, 3, len(target.Points))
}

func TestPolygonToolDegenerateStroke(t *testing.T) {
	tool := NewPolygonTool(localIdentity, vector.Style{})
	tool.Start(geometry.Point2D{X: 10, Y: 10})
	target, ok := tool.Up(geometry.Point2D{X: 10, Y: 10}, PointerEvent{})
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(target.Points), 3)
}

func TestPointTool(t *testing.T) {
	tool := NewPointTool(localIdentity, vector.Style{})
	tool.Start(geometry.Point2D{X: 1, Y: 1})
	target, ok := tool.Up(geometry.Point2D{X: 7, Y: 8}, PointerEvent{})
	require.True(t, ok)
	assert.Equal(t, annotation.KindPoint, target.Kind)
	assert.Equal(t, geometry.Point2D{X: 7, Y: 8}, target.Point)
}

func rectAnnotation(x, y, w, h float64) annotation.Annotation {
	return annotation.New(annotation.Target{
		Kind: annotation.KindRectangle,
		Rect: geometry.Rect{X: x, Y: y, Width: w, Height: h},
	})
}

func TestEditableBodyDrag(t *testing.T) {
	ed := NewEditable(rectAnnotation(10, 10, 20, 20), vector.Style{})

	var updates int
	ed.OnUpdate(func(annotation.Target) { updates++ })

	ed.Press(geometry.Point2D{X: 15, Y: 15})
	require.True(t, ed.Dragging())
	ed.Drag(geometry.Point2D{X: 25, Y: 20})
	ed.Release(geometry.Point2D{X: 25, Y: 20})

	assert.False(t, ed.Dragging())
	assert.Equal(t, 20.0, ed.Target().Rect.X)
	assert.Equal(t, 15.0, ed.Target().Rect.Y)
	assert.Equal(t, 20.0, ed.Target().Rect.Width)
	assert.GreaterOrEqual(t, updates, 1)
}

func TestEditableHandleDragKeepsOppositeCorner(t *testing.T) {
	ed := NewEditable(rectAnnotation(0, 0, 10, 10), vector.Style{})

	// handle 2 is the bottom-right corner; drag it outward
	ed.Press(geometry.Point2D{X: 10, Y: 10})
	ed.Drag(geometry.Point2D{X: 30, Y: 40})
	ed.Release(geometry.Point2D{X: 30, Y: 40})

	r := ed.Target().Rect
	assert.Equal(t, 0.0, r.X)
	assert.Equal(t, 0.0, r.Y)
	assert.Equal(t, 30.0, r.Width)
	assert.Equal(t, 40.0, r.Height)
}

func TestEditablePressOutsideIsNoop(t *testing.T) {
	ed := NewEditable(rectAnnotation(0, 0, 10, 10), vector.Style{})
	ed.Press(geometry.Point2D{X: 100, Y: 100})
	assert.False(t, ed.Dragging())

	before := ed.Target()
	ed.Drag(geometry.Point2D{X: 120, Y: 120})
	assert.Equal(t, before, ed.Target())
}

func TestEditableHandleScaleRebuild(t *testing.T) {
	ed := NewEditable(rectAnnotation(0, 0, 10, 10), vector.Style{})
	require.Len(t, ed.Element().Children, 2)

	handles := ed.Element().Children[1]
	require.Len(t, handles.Children, 4)
	assert.Equal(t, baseHandleSize, handles.Children[0].Rect.Width)

	ed.SetHandleScale(0.5)
	assert.Equal(t, baseHandleSize*0.5, handles.Children[0].Rect.Width)

	// a hit just inside the shrunk handle still registers
	assert.True(t, ed.HitTest(geometry.Point2D{X: 0.5, Y: 0.5}))
}

func TestEditableHitTest(t *testing.T) {
	ed := NewEditable(rectAnnotation(0, 0, 10, 10), vector.Style{})
	assert.True(t, ed.HitTest(geometry.Point2D{X: 5, Y: 5}))
	assert.True(t, ed.HitTest(geometry.Point2D{X: 10.5, Y: 10.5})) // corner handle overhang
	assert.False(t, ed.HitTest(geometry.Point2D{X: 50, Y: 50}))
}
