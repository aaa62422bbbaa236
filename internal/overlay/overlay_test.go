package overlay

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-markup/internal/annotation"
	"image-markup/internal/tools"
	"image-markup/internal/vector"
	"image-markup/pkg/geometry"
)

// stubViewport is a scriptable viewport for driving the overlay without
// a real widget.
type stubViewport struct {
	zoom      float64
	rotation  float64
	flipped   bool
	container geometry.Size
	factor    float64
	origin    geometry.Point2D

	listeners []func()
	fitCalls  []geometry.Rect
	panCalls  []geometry.Point2D
}

func newStubViewport() *stubViewport {
	return &stubViewport{
		zoom:      1,
		container: geometry.Size{Width: 100, Height: 100},
		factor:    100,
	}
}

func (v *stubViewport) Zoom() float64                 { return v.zoom }
func (v *stubViewport) Rotation() float64             { return v.rotation }
func (v *stubViewport) Flipped() bool                 { return v.flipped }
func (v *stubViewport) ContainerSize() geometry.Size  { return v.container }
func (v *stubViewport) ContentFactor() float64        { return v.factor }
func (v *stubViewport) FitBounds(r geometry.Rect)     { v.fitCalls = append(v.fitCalls, r) }
func (v *stubViewport) PanTo(p geometry.Point2D)      { v.panCalls = append(v.panCalls, p) }

func (v *stubViewport) PixelFromPoint(p geometry.Point2D) geometry.Point2D {
	return v.origin.Add(p)
}

// client coordinates equal image coordinates in the tests
func (v *stubViewport) ImagePointFromClient(p geometry.Point2D) geometry.Point2D {
	return p
}

func (v *stubViewport) OnChange(fn func()) (cancel func()) {
	v.listeners = append(v.listeners, fn)
	return func() {}
}

func (v *stubViewport) fire() {
	for _, fn := range v.listeners {
		fn()
	}
}

// stubKeys drives the drawing modifier directly.
type stubKeys struct {
	listeners []func(bool)
}

func (k *stubKeys) OnModifier(fn func(down bool)) (cancel func()) {
	k.listeners = append(k.listeners, fn)
	return func() {}
}

func (k *stubKeys) set(down bool) {
	for _, fn := range k.listeners {
		fn(down)
	}
}

func drawNode(a annotation.Annotation) *vector.Node {
	switch a.Target.Kind {
	case annotation.KindRectangle:
		return &vector.Node{Kind: vector.KindRect, Rect: a.Target.Rect, Visible: true}
	case annotation.KindPolygon:
		return &vector.Node{Kind: vector.KindPolygon, Points: a.Target.Points, Visible: true}
	default:
		return &vector.Node{Kind: vector.KindMarker, Point: a.Target.Point, Visible: true}
	}
}

type fixture struct {
	vp   *stubViewport
	keys *stubKeys
	ov   *Overlay
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	if opts.Draw == nil {
		opts.Draw = drawNode
	}
	vp := newStubViewport()
	keys := &stubKeys{}

	reg := tools.NewRegistry()
	reg.Register(tools.NewRectangleTool(vp.ImagePointFromClient, vector.Style{}))
	reg.Register(tools.NewPolygonTool(vp.ImagePointFromClient, vector.Style{}))
	reg.Register(tools.NewPointTool(vp.ImagePointFromClient, vector.Style{}))

	return &fixture{vp: vp, keys: keys, ov: New(vp, keys, reg, opts)}
}

func rectAnn(x, y, w, h float64) annotation.Annotation {
	return annotation.New(annotation.Target{
		Kind: annotation.KindRectangle,
		Rect: geometry.Rect{X: x, Y: y, Width: w, Height: h},
	})
}

func press(p geometry.Point2D) tools.PointerEvent {
	return tools.PointerEvent{Client: p}
}

func TestShapeCountTracksLiveIdentifiers(t *testing.T) {
	f := newFixture(t, Options{})

	a := rectAnn(0, 0, 10, 10)
	b := rectAnn(20, 20, 10, 10)

	f.ov.Add(a)
	f.ov.Add(b)
	assert.Equal(t, 2, f.ov.Count())

	// re-adding the same identifier does not duplicate
	f.ov.Add(a)
	assert.Equal(t, 2, f.ov.Count())

	f.ov.Remove(a.ID)
	assert.Equal(t, 1, f.ov.Count())

	// removing an unknown identifier is a no-op
	f.ov.Remove("missing")
	assert.Equal(t, 1, f.ov.Count())

	f.ov.Remove(b.ID)
	assert.Equal(t, 0, f.ov.Count())
}

func TestAddOverSelectedIdentityDeselectsFirst(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(0, 0, 10, 10)
	f.ov.Add(a)
	f.ov.SelectByID(a.ID)
	require.Equal(t, StateEditable, f.ov.sel.State())

	moved := a.WithTarget(annotation.Target{
		Kind: annotation.KindRectangle,
		Rect: geometry.Rect{X: 5, Y: 5, Width: 10, Height: 10},
	})
	f.ov.Add(moved)

	// the selection dropped before the new shape went in, so the
	// identity has exactly one static shape and no editable remnant
	assert.Equal(t, StateIdle, f.ov.sel.State())
	assert.Equal(t, 1, f.ov.Count())
	got := f.ov.reg.Find(a.ID)
	require.NotNil(t, got)
	assert.Equal(t, 5.0, got.Annotation().Target.Rect.X)
	for _, c := range f.ov.Group().Children {
		assert.NotEqual(t, vector.KindGroup, c.Kind)
	}
}

func TestRedrawAreaDescendingAndIdempotent(t *testing.T) {
	f := newFixture(t, Options{})

	small := rectAnn(0, 0, 5, 5)
	large := rectAnn(0, 0, 50, 50)
	medium := rectAnn(0, 0, 20, 20)

	f.ov.Add(small)
	f.ov.Add(large)
	f.ov.Add(medium)

	f.ov.reg.Redraw()
	first := f.ov.Annotations()
	require.Len(t, first, 3)
	assert.Equal(t, large.ID, first[0].ID)
	assert.Equal(t, medium.ID, first[1].ID)
	assert.Equal(t, small.ID, first[2].ID)

	f.ov.reg.Redraw()
	second := f.ov.Annotations()
	assert.Equal(t, first, second)
}

func TestSmallShapeStaysClickableAfterRedraw(t *testing.T) {
	f := newFixture(t, Options{})

	small := rectAnn(10, 10, 5, 5)
	large := rectAnn(0, 0, 50, 50)
	f.ov.Add(small)
	f.ov.Add(large)
	f.ov.reg.Redraw()

	// a press inside both shapes selects the topmost, which redraw
	// made the smaller one
	f.ov.PointerDown(press(geometry.Point2D{X: 12, Y: 12}))
	sel, _, ok := f.ov.Selection()
	require.True(t, ok)
	assert.Equal(t, small.ID, sel.ID)
}

func TestSelectDeselectRestoresRegistry(t *testing.T) {
	f := newFixture(t, Options{})

	a := rectAnn(0, 0, 10, 10)
	f.ov.Add(a)

	f.ov.SelectByID(a.ID)
	assert.Equal(t, StateEditable, f.ov.sel.State())
	// the static shape leaves the registry while selected
	assert.Equal(t, 0, f.ov.Count())

	f.ov.Deselect()
	assert.Equal(t, StateIdle, f.ov.sel.State())
	assert.Equal(t, 1, f.ov.Count())
	require.NotNil(t, f.ov.reg.Find(a.ID))

	// no residual editable element in the group
	for _, c := range f.ov.Group().Children {
		assert.NotEqual(t, vector.KindGroup, c.Kind)
	}
}

func TestSelectingSecondDeselectsFirst(t *testing.T) {
	f := newFixture(t, Options{})

	a := rectAnn(0, 0, 10, 10)
	b := rectAnn(20, 20, 10, 10)
	f.ov.Add(a)
	f.ov.Add(b)

	var selected []string
	f.ov.On(EventSelect, func(data interface{}) {
		selected = append(selected, data.(SelectEvent).Annotation.ID)
	})

	f.ov.SelectByID(a.ID)
	f.ov.SelectByID(b.ID)

	sel, _, ok := f.ov.Selection()
	require.True(t, ok)
	assert.Equal(t, b.ID, sel.ID)
	assert.Equal(t, []string{a.ID, b.ID}, selected)
	// a's static shape is back, b's is out
	assert.NotNil(t, f.ov.reg.Find(a.ID))
	assert.Nil(t, f.ov.reg.Find(b.ID))
}

func TestSelectSameAnnotationIsNoop(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(0, 0, 10, 10)
	f.ov.Add(a)

	var selects int
	f.ov.On(EventSelect, func(interface{}) { selects++ })

	f.ov.SelectByID(a.ID)
	f.ov.SelectByID(a.ID)
	assert.Equal(t, 1, selects)
}

func TestReadOnlyAnnotationSelectsStatic(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(0, 0, 10, 10)
	a.ReadOnly = true
	f.ov.Add(a)

	f.ov.SelectByID(a.ID)
	assert.Equal(t, StateStatic, f.ov.sel.State())
	// the static shape stays in the registry
	assert.Equal(t, 1, f.ov.Count())
}

func TestReadOnlyLayerSelectsStatic(t *testing.T) {
	f := newFixture(t, Options{ReadOnly: true})
	a := rectAnn(0, 0, 10, 10)
	f.ov.Add(a)

	f.ov.SelectByID(a.ID)
	assert.Equal(t, StateStatic, f.ov.sel.State())
}

func TestHeadlessLayerSelectsStatic(t *testing.T) {
	f := newFixture(t, Options{Headless: true})
	a := rectAnn(0, 0, 10, 10)
	f.ov.Add(a)

	f.ov.SelectByID(a.ID)
	assert.Equal(t, StateStatic, f.ov.sel.State())
	assert.Equal(t, 1, f.ov.Count())

	// drawing still arms in headless mode once nothing is selected
	f.ov.Deselect()
	f.keys.set(true)
	assert.True(t, f.ov.draw.Armed())
}

func TestRemoveSelectedDeselectsFirst(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(0, 0, 10, 10)
	f.ov.Add(a)

	f.ov.SelectByID(a.ID)
	require.Equal(t, StateEditable, f.ov.sel.State())

	f.ov.Remove(a.ID)
	assert.Equal(t, StateIdle, f.ov.sel.State())
	assert.Equal(t, 0, f.ov.Count())
	assert.Empty(t, f.ov.Group().Children)
}

func TestDrawingFlow(t *testing.T) {
	f := newFixture(t, Options{})

	var created []annotation.Annotation
	f.ov.On(EventCreateSelection, func(data interface{}) {
		created = append(created, data.(CreateSelectionEvent).Annotation)
	})

	assert.False(t, f.ov.draw.Armed())
	f.keys.set(true)
	assert.True(t, f.ov.draw.Armed())

	require.True(t, f.ov.PointerDown(press(geometry.Point2D{X: 10, Y: 10})))
	assert.True(t, f.ov.draw.Drawing())
	require.True(t, f.ov.PointerMove(press(geometry.Point2D{X: 30, Y: 20})))
	require.True(t, f.ov.PointerUp(press(geometry.Point2D{X: 40, Y: 30})))

	require.Len(t, created, 1)
	assert.Equal(t, annotation.Draft, created[0].State)
	assert.Equal(t, 30.0, created[0].Target.Rect.Width)

	sel, _, ok := f.ov.Selection()
	require.True(t, ok)
	assert.Equal(t, created[0].ID, sel.ID)
	assert.Equal(t, StateEditable, f.ov.sel.State())
	// the stroke completed: tracker disarmed until the modifier re-arms
	assert.False(t, f.ov.draw.Armed())
}

func TestModifierDoesNotArmWhileSelected(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(0, 0, 10, 10)
	f.ov.Add(a)
	f.ov.SelectByID(a.ID)

	f.keys.set(true)
	assert.False(t, f.ov.draw.Armed())
}

func TestModifierReleaseMidDrawKeepsSession(t *testing.T) {
	f := newFixture(t, Options{})

	f.keys.set(true)
	require.True(t, f.ov.PointerDown(press(geometry.Point2D{X: 0, Y: 0})))
	f.keys.set(false)
	// the in-flight session survives the release
	assert.True(t, f.ov.draw.Drawing())
	require.True(t, f.ov.PointerUp(press(geometry.Point2D{X: 10, Y: 10})))

	_, _, ok := f.ov.Selection()
	assert.True(t, ok)
}

func TestDraftDiscardedOnDeselect(t *testing.T) {
	f := newFixture(t, Options{})

	f.keys.set(true)
	f.ov.PointerDown(press(geometry.Point2D{X: 0, Y: 0}))
	f.ov.PointerUp(press(geometry.Point2D{X: 10, Y: 10}))

	_, _, ok := f.ov.Selection()
	require.True(t, ok)

	f.ov.Deselect()
	assert.Equal(t, 0, f.ov.Count())
	assert.Empty(t, f.ov.Annotations())
}

func TestCommitSelection(t *testing.T) {
	f := newFixture(t, Options{})

	f.keys.set(true)
	f.ov.PointerDown(press(geometry.Point2D{X: 0, Y: 0}))
	f.ov.PointerUp(press(geometry.Point2D{X: 10, Y: 10}))

	committed, ok := f.ov.CommitSelection()
	require.True(t, ok)
	assert.Equal(t, annotation.Committed, committed.State)

	// committing again reports false
	_, again := f.ov.CommitSelection()
	assert.False(t, again)

	f.ov.Deselect()
	assert.Equal(t, 1, f.ov.Count())
}

func TestOverrideID(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(0, 0, 10, 10)
	f.ov.Add(a)

	got, ok := f.ov.OverrideID(a.ID, "forced")
	require.True(t, ok)
	assert.Equal(t, "forced", got.ID)
	assert.Equal(t, a.Target, got.Target)

	assert.Nil(t, f.ov.reg.Find(a.ID))
	require.NotNil(t, f.ov.reg.Find("forced"))
	assert.Equal(t, "forced", f.ov.reg.Find("forced").Element().AnnotationID)
}

func TestOverrideIDOnSelection(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(0, 0, 10, 10)
	f.ov.Add(a)
	f.ov.SelectByID(a.ID)

	got, ok := f.ov.OverrideID(a.ID, "forced")
	require.True(t, ok)
	assert.Equal(t, "forced", got.ID)

	sel, _, selOk := f.ov.Selection()
	require.True(t, selOk)
	assert.Equal(t, "forced", sel.ID)

	// deselect re-materializes the static shape under the new identity
	f.ov.Deselect()
	assert.NotNil(t, f.ov.reg.Find("forced"))
}

func TestOverrideIDOnStaticSelection(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(0, 0, 10, 10)
	a.ReadOnly = true
	f.ov.Add(a)
	f.ov.SelectByID(a.ID)
	require.Equal(t, StateStatic, f.ov.sel.State())

	got, ok := f.ov.OverrideID(a.ID, "forced")
	require.True(t, ok)
	assert.Equal(t, "forced", got.ID)
	assert.Equal(t, a.Target, got.Target)

	// the registry follows the identity even though the shape never
	// left it
	assert.Nil(t, f.ov.reg.Find(a.ID))
	require.NotNil(t, f.ov.reg.Find("forced"))

	sel, _, selOk := f.ov.Selection()
	require.True(t, selOk)
	assert.Equal(t, "forced", sel.ID)

	f.ov.Remove("forced")
	assert.Equal(t, 0, f.ov.Count())
}

func TestOverrideIDUnknown(t *testing.T) {
	f := newFixture(t, Options{})
	_, ok := f.ov.OverrideID("missing", "forced")
	assert.False(t, ok)
}

func TestReplace(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(0, 0, 10, 10)
	f.ov.Add(a)

	b := a.WithTarget(annotation.Target{
		Kind: annotation.KindRectangle,
		Rect: geometry.Rect{X: 5, Y: 5, Width: 20, Height: 20},
	})
	f.ov.Replace(b, a.ID)

	assert.Equal(t, 1, f.ov.Count())
	got := f.ov.reg.Find(b.ID)
	require.NotNil(t, got)
	assert.Equal(t, 20.0, got.Annotation().Target.Rect.Width)
}

func TestReplaceUnderNewIdentity(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(0, 0, 10, 10)
	f.ov.Add(a)

	b := rectAnn(1, 1, 5, 5)
	f.ov.Replace(b, a.ID)

	assert.Equal(t, 1, f.ov.Count())
	assert.Nil(t, f.ov.reg.Find(a.ID))
	assert.NotNil(t, f.ov.reg.Find(b.ID))
}

func TestInitClearsAndAdds(t *testing.T) {
	f := newFixture(t, Options{})
	f.ov.Add(rectAnn(0, 0, 1, 1))

	a := rectAnn(0, 0, 10, 10)
	b := rectAnn(5, 5, 10, 10)
	f.ov.Init([]annotation.Annotation{a, b})

	assert.Equal(t, 2, f.ov.Count())
	got := f.ov.Annotations()
	require.Len(t, got, 2)
	// caller order is preserved, no redraw implied
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, b.ID, got[1].ID)
}

func TestHoverEvents(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(0, 0, 10, 10)
	f.ov.Add(a)

	var entered, left []string
	f.ov.On(EventEnterAnnotation, func(data interface{}) {
		entered = append(entered, data.(HoverEvent).Annotation.ID)
	})
	f.ov.On(EventLeaveAnnotation, func(data interface{}) {
		left = append(left, data.(HoverEvent).Annotation.ID)
	})

	f.ov.PointerMove(press(geometry.Point2D{X: 5, Y: 5}))
	f.ov.PointerMove(press(geometry.Point2D{X: 6, Y: 6})) // still inside, no repeat
	f.ov.PointerMove(press(geometry.Point2D{X: 50, Y: 50}))

	assert.Equal(t, []string{a.ID}, entered)
	assert.Equal(t, []string{a.ID}, left)
}

func TestHoverSuppressedWhileDrawing(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(0, 0, 10, 10)
	f.ov.Add(a)

	var entered int
	f.ov.On(EventEnterAnnotation, func(interface{}) { entered++ })

	f.keys.set(true)
	f.ov.PointerDown(press(geometry.Point2D{X: 30, Y: 30}))
	f.ov.PointerMove(press(geometry.Point2D{X: 5, Y: 5}))
	assert.Equal(t, 0, entered)
	f.ov.PointerUp(press(geometry.Point2D{X: 40, Y: 40}))
}

func TestEmptyPressDeselectsAndFallsThrough(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(0, 0, 10, 10)
	f.ov.Add(a)
	f.ov.SelectByID(a.ID)

	consumed := f.ov.PointerDown(press(geometry.Point2D{X: 90, Y: 90}))
	assert.False(t, consumed)
	_, _, ok := f.ov.Selection()
	assert.False(t, ok)
}

func TestEditDragThroughPointerRouting(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(0, 0, 20, 20)
	f.ov.Add(a)
	f.ov.SelectByID(a.ID)

	var updates int
	f.ov.On(EventUpdateTarget, func(interface{}) { updates++ })

	// hover over the editable body arms its tracker
	f.ov.PointerMove(press(geometry.Point2D{X: 10, Y: 10}))
	require.True(t, f.ov.PointerDown(press(geometry.Point2D{X: 10, Y: 10})))
	require.True(t, f.ov.PointerMove(press(geometry.Point2D{X: 15, Y: 10})))
	require.True(t, f.ov.PointerUp(press(geometry.Point2D{X: 15, Y: 10})))

	assert.GreaterOrEqual(t, updates, 1)

	f.ov.Deselect()
	got := f.ov.reg.Find(a.ID)
	require.NotNil(t, got)
	// the edit moved the shape by 5 on X and survived the deselect
	assert.Equal(t, 5.0, got.Annotation().Target.Rect.X)
}

func TestNavigationResumesOffShape(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(0, 0, 10, 10)
	f.ov.Add(a)
	f.ov.SelectByID(a.ID)

	// pointer off the editable element: press is not consumed
	f.ov.PointerMove(press(geometry.Point2D{X: 50, Y: 50}))
	assert.False(t, f.ov.PointerDown(press(geometry.Point2D{X: 50, Y: 50})))
}

func TestFitAndPanToAnnotation(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(10, 10, 30, 20)
	f.ov.Add(a)

	f.ov.FitToAnnotation(a.ID)
	require.Len(t, f.vp.fitCalls, 1)
	assert.Equal(t, a.Target.Rect, f.vp.fitCalls[0])

	f.ov.PanToAnnotation(a.ID)
	require.Len(t, f.vp.panCalls, 1)
	assert.Equal(t, a.Target.Rect.Center(), f.vp.panCalls[0])

	// unknown identifiers are no-ops
	f.ov.FitToAnnotation("missing")
	assert.Len(t, f.vp.fitCalls, 1)
}

func TestSnippetRequiresSelection(t *testing.T) {
	f := newFixture(t, Options{})
	a := rectAnn(10, 10, 20, 20)
	f.ov.Add(a)

	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	_, ok := f.ov.Snippet(src)
	assert.False(t, ok)

	f.ov.SelectByID(a.ID)
	img, ok := f.ov.Snippet(src)
	require.True(t, ok)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
}

func TestSetVisible(t *testing.T) {
	f := newFixture(t, Options{})
	assert.True(t, f.ov.Visible())
	f.ov.SetVisible(false)
	assert.False(t, f.ov.Group().Visible)
}

func TestCloseTearsDown(t *testing.T) {
	f := newFixture(t, Options{})
	f.ov.Add(rectAnn(0, 0, 10, 10))
	f.ov.Close()

	assert.Equal(t, 0, f.ov.Count())
	assert.False(t, f.ov.PointerDown(press(geometry.Point2D{X: 5, Y: 5})))
	// closing twice is safe
	f.ov.Close()
}
