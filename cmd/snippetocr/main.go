// Command snippetocr recognizes text inside a rectangular region of an
// image, the same pipeline the application runs on a selection snippet.
//
// Usage: snippetocr -i <image> -r x,y,w,h [-whitelist chars]
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"image-markup/internal/annotation"
	"image-markup/internal/imaging"
	"image-markup/internal/ocr"
	"image-markup/pkg/geometry"
)

func main() {
	imagePath := flag.String("i", "", "Path to image")
	region := flag.String("r", "", "Region as x,y,w,h in image pixels")
	whitelist := flag.String("whitelist", "", "Restrict recognition to these characters")
	flag.Parse()

	if *imagePath == "" || *region == "" {
		fmt.Println("Usage: snippetocr -i <image> -r x,y,w,h [-whitelist chars]")
		os.Exit(1)
	}

	rect, err := parseRect(*region)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bad region %q: %v\n", *region, err)
		os.Exit(1)
	}

	doc, err := imaging.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}

	engine, err := ocr.NewEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start OCR engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	if *whitelist != "" {
		if err := engine.SetWhitelist(*whitelist); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to set whitelist: %v\n", err)
			os.Exit(1)
		}
	}

	target := annotation.Target{Kind: annotation.KindRectangle, Rect: rect}
	text, err := engine.RecognizeTarget(doc.Image, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recognition failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Region (%.0f,%.0f %gx%g): %q\n", rect.X, rect.Y, rect.Width, rect.Height, text)
}

func parseRect(s string) (geometry.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.Rect{}, fmt.Errorf("want 4 comma-separated values, got %d", len(parts))
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.Rect{}, err
		}
		vals[i] = v
	}
	if vals[2] <= 0 || vals[3] <= 0 {
		return geometry.Rect{}, fmt.Errorf("width and height must be positive")
	}
	return geometry.NewRect(vals[0], vals[1], vals[2], vals[3]), nil
}
