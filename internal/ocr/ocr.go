// Package ocr recognizes text inside annotated image regions.
package ocr

import (
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"

	"image-markup/internal/annotation"
	"image-markup/internal/snippet"
)

// minOCRHeight is the pixel height small snippets are upscaled to
// before recognition. Tesseract degrades sharply below ~30px text.
const minOCRHeight = 64

// Engine wraps a Tesseract client configured for short free-form labels.
type Engine struct {
	client *gosseract.Client
}

// NewEngine creates an OCR engine. Callers own the Close.
func NewEngine() (*Engine, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("set OCR language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	return &Engine{client: client}, nil
}

// Close releases Tesseract resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// SetWhitelist restricts recognition to the given characters. An empty
// string clears the restriction.
func (e *Engine) SetWhitelist(chars string) error {
	return e.client.SetWhitelist(chars)
}

// RecognizeTarget extracts the target's pixels from src and runs
// recognition on them.
func (e *Engine) RecognizeTarget(src image.Image, t annotation.Target) (string, error) {
	region, err := snippet.Extract(src, t)
	if err != nil {
		return "", fmt.Errorf("extract region: %w", err)
	}
	return e.Recognize(region)
}

// Recognize runs OCR over the whole image and returns the trimmed text.
func (e *Engine) Recognize(img image.Image) (string, error) {
	processed, err := preprocess(img)
	if err != nil {
		return "", err
	}
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return "", fmt.Errorf("encode region: %w", err)
	}
	defer buf.Close()

	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("set OCR image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// preprocess binarizes the region and upscales small text.
func preprocess(img image.Image) (gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("convert region: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBToGray)

	if h := gray.Rows(); h > 0 && h < minOCRHeight {
		scale := float64(minOCRHeight) / float64(h)
		scaled := gocv.NewMat()
		gocv.Resize(gray, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
		gray.Close()
		gray = scaled
	}

	binary := gocv.NewMat()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	gray.Close()
	return binary, nil
}
