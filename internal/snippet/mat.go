package snippet

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// imageToMat converts a Go image to a BGR Mat.
func imageToMat(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return gocv.Mat{}, fmt.Errorf("empty image")
	}

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// OpenCV stores channels as BGR
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat, nil
}

// matToImage converts a BGR Mat back to an RGBA image.
func matToImage(mat gocv.Mat) (image.Image, error) {
	h, w := mat.Rows(), mat.Cols()
	if h == 0 || w == 0 {
		return nil, fmt.Errorf("empty mat")
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		off := y * img.Stride
		for x := 0; x < w; x++ {
			p := off + x*4
			img.Pix[p+0] = mat.GetUCharAt(y, x*3+2)
			img.Pix[p+1] = mat.GetUCharAt(y, x*3+1)
			img.Pix[p+2] = mat.GetUCharAt(y, x*3+0)
			img.Pix[p+3] = 255
		}
	}
	return img, nil
}
