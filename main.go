// Package main provides the entry point for the Image Markup application.
package main

import (
	"fmt"
	"log"
	"os"

	"image-markup/internal/annotation"
	"image-markup/internal/imaging"
	"image-markup/internal/overlay"
	"image-markup/internal/tools"
	"image-markup/internal/vector"
	"image-markup/internal/version"
	"image-markup/pkg/colorutil"
	"image-markup/ui/prefs"
	"image-markup/ui/viewer"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const appTitle = "Image Markup"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.String())

	a := fyneapp.New()
	win := a.NewWindow(appTitle)

	appPrefs := prefs.Load()
	vw := viewer.New()
	if key := appPrefs.String(prefs.KeyDrawModifier, ""); key != "" {
		vw.SetModifierKey(fyne.KeyName(key))
	}

	strokeWidth := appPrefs.FloatWithFallback(prefs.KeyStrokeWidth, 2)
	fillOpacity := appPrefs.FloatWithFallback(prefs.KeyFillOpacity, 0.15)
	committedColor := colorutil.Cyan
	if hex := appPrefs.String(prefs.KeyStrokeColor, ""); hex != "" {
		if c, err := colorutil.ParseHex(hex); err == nil {
			committedColor = c
		} else {
			log.Printf("Ignoring bad %s preference %q: %v", prefs.KeyStrokeColor, hex, err)
		}
	}

	draftStyle := vector.Style{
		Stroke:      colorutil.Orange,
		StrokeWidth: strokeWidth,
		Fill:        colorutil.Orange,
		FillOpacity: fillOpacity,
	}
	committedStyle := vector.Style{
		Stroke:      committedColor,
		StrokeWidth: strokeWidth,
		Fill:        committedColor,
		FillOpacity: fillOpacity,
	}

	toolReg := tools.NewRegistry()
	toolReg.Register(tools.NewRectangleTool(vw.ImagePointFromClient, draftStyle))
	toolReg.Register(tools.NewPolygonTool(vw.ImagePointFromClient, draftStyle))
	toolReg.Register(tools.NewPointTool(vw.ImagePointFromClient, draftStyle))

	ov := overlay.New(vw, vw, toolReg, overlay.Options{
		Draw: drawAnnotation,
		Format: func(n *vector.Node, a annotation.Annotation) {
			if a.State == annotation.Draft {
				n.Style = draftStyle
			} else {
				n.Style = committedStyle
			}
		},
	})
	vw.Attach(ov)

	status := widget.NewLabel("Ready")
	ov.On(overlay.EventSelect, func(data interface{}) {
		if ev, ok := data.(overlay.SelectEvent); ok {
			status.SetText(fmt.Sprintf("Selected %s (%s)", ev.Annotation.ID[:8], ev.Annotation.Target.Kind))
		}
	})
	ov.On(overlay.EventCreateSelection, func(data interface{}) {
		if ev, ok := data.(overlay.CreateSelectionEvent); ok {
			status.SetText(fmt.Sprintf("Drew new %s", ev.Annotation.Target.Kind))
		}
	})

	toolbar := buildToolbar(win, vw, ov, status, appPrefs)
	win.SetContent(container.NewBorder(toolbar, status, nil, nil, vw))

	if deskCanvas, ok := win.Canvas().(desktop.Canvas); ok {
		deskCanvas.SetOnKeyDown(vw.KeyDown)
		deskCanvas.SetOnKeyUp(vw.KeyUp)
	}

	if len(os.Args) > 1 {
		if err := openDocument(vw, ov, os.Args[1]); err != nil {
			log.Printf("Failed to open %s: %v", os.Args[1], err)
		}
	}

	win.SetOnClosed(func() {
		ov.Close()
		if err := appPrefs.Save(); err != nil {
			log.Printf("Failed to save preferences: %v", err)
		}
	})

	win.Resize(fyne.NewSize(1200, 800))
	win.ShowAndRun()
}

// drawAnnotation renders a static shape node for an annotation.
func drawAnnotation(a annotation.Annotation) *vector.Node {
	switch a.Target.Kind {
	case annotation.KindRectangle:
		return &vector.Node{Kind: vector.KindRect, Rect: a.Target.Rect, Visible: true}
	case annotation.KindPolygon:
		return &vector.Node{Kind: vector.KindPolygon, Points: a.Target.Points, Visible: true}
	default:
		return &vector.Node{Kind: vector.KindMarker, Point: a.Target.Point, Visible: true}
	}
}

func buildToolbar(win fyne.Window, vw *viewer.Viewer, ov *overlay.Overlay, status *widget.Label, appPrefs *prefs.Prefs) fyne.CanvasObject {
	kinds := ov.ToolKinds()
	options := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		options = append(options, kind.String())
	}
	toolSelect := widget.NewSelect(options, func(name string) {
		for _, kind := range kinds {
			if name == kind.String() {
				ov.SetTool(kind)
				appPrefs.SetString(prefs.KeyDrawTool, name)
				return
			}
		}
	})
	if len(options) > 0 {
		saved := appPrefs.String(prefs.KeyDrawTool, options[0])
		selected := options[0]
		for _, name := range options {
			if name == saved {
				selected = name
				break
			}
		}
		toolSelect.SetSelected(selected)
	}

	open := widget.NewButton("Open", func() {
		dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil || reader == nil {
				return
			}
			path := reader.URI().Path()
			reader.Close()
			if !imaging.IsSupportedFormat(path) {
				dialog.ShowError(fmt.Errorf("unsupported format: %s", path), win)
				return
			}
			if err := openDocument(vw, ov, path); err != nil {
				dialog.ShowError(err, win)
				return
			}
			appPrefs.SetString(prefs.KeyLastDir, path)
			status.SetText(fmt.Sprintf("Opened %s", path))
		}, win)
	})

	commit := widget.NewButton("Commit", func() {
		if a, ok := ov.CommitSelection(); ok {
			status.SetText(fmt.Sprintf("Committed %s", a.ID[:8]))
		}
	})
	remove := widget.NewButton("Delete", func() {
		if a, _, ok := ov.Selection(); ok {
			ov.Remove(a.ID)
			status.SetText("Deleted annotation")
		}
	})

	zoomIn := widget.NewButton("+", vw.ZoomIn)
	zoomOut := widget.NewButton("-", vw.ZoomOut)
	rotate := widget.NewButton("Rotate", func() {
		vw.SetRotation(vw.Rotation() + 90)
	})
	flip := widget.NewButton("Flip", func() {
		vw.SetFlipped(!vw.Flipped())
	})

	return container.NewHBox(open, widget.NewSeparator(), toolSelect, commit, remove,
		widget.NewSeparator(), zoomIn, zoomOut, rotate, flip)
}

func openDocument(vw *viewer.Viewer, ov *overlay.Overlay, path string) error {
	doc, err := imaging.Load(path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	if doc.DPI > 0 {
		log.Printf("Loaded %s (%dx%d @ %.0f DPI)", path, doc.Width(), doc.Height(), doc.DPI)
	} else {
		log.Printf("Loaded %s (%dx%d)", path, doc.Width(), doc.Height())
	}
	vw.Open(doc)
	ov.Init(nil)
	return nil
}
