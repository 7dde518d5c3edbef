// Package imageio loads and saves photos and converts between Go images and gocv Mats.
package imageio

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"gocv.io/x/gocv"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Load decodes the image file at path. PNG, JPEG, TIFF, BMP and WebP are supported.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode decodes an image from r.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// LoadMat loads the image at path as a BGR Mat. The caller closes it.
func LoadMat(path string) (gocv.Mat, error) {
	img, err := Load(path)
	if err != nil {
		return gocv.NewMat(), err
	}
	return ToMat(img), nil
}

// ToMat converts img to a BGR Mat, one horizontal stripe per CPU.
func ToMat(img image.Image) gocv.Mat {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)

	stripes(height, func(yStart, yEnd int) {
		for y := yStart; y < yEnd; y++ {
			for x := 0; x < width; x++ {
				r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
				mat.SetUCharAt(y, x*3+0, uint8(b>>8))
				mat.SetUCharAt(y, x*3+1, uint8(g>>8))
				mat.SetUCharAt(y, x*3+2, uint8(r>>8))
			}
		}
	})
	return mat
}

// FromMat converts a BGR or grayscale Mat to an RGBA image.
func FromMat(mat gocv.Mat) (*image.RGBA, error) {
	h, w := mat.Rows(), mat.Cols()
	channels := mat.Channels()
	if channels != 1 && channels != 3 {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	stride := img.Stride

	stripes(h, func(yStart, yEnd int) {
		for y := yStart; y < yEnd; y++ {
			row := y * stride
			for x := 0; x < w; x++ {
				px := row + x*4
				if channels == 1 {
					v := mat.GetUCharAt(y, x)
					img.Pix[px+0], img.Pix[px+1], img.Pix[px+2] = v, v, v
				} else {
					img.Pix[px+0] = mat.GetUCharAt(y, x*3+2)
					img.Pix[px+1] = mat.GetUCharAt(y, x*3+1)
					img.Pix[px+2] = mat.GetUCharAt(y, x*3+0)
				}
				img.Pix[px+3] = 255
			}
		}
	})
	return img, nil
}

// Save writes mat to path, choosing the encoder from the extension
// (.png, .jpg/.jpeg, .tif/.tiff, .bmp).
func Save(path string, mat gocv.Mat) error {
	img, err := FromMat(mat)
	if err != nil {
		return err
	}

	var encode func(io.Writer, image.Image) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		encode = png.Encode
	case ".jpg", ".jpeg":
		encode = func(w io.Writer, m image.Image) error {
			return jpeg.Encode(w, m, &jpeg.Options{Quality: 95})
		}
	case ".tif", ".tiff":
		encode = func(w io.Writer, m image.Image) error {
			return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
		}
	case ".bmp":
		encode = bmp.Encode
	default:
		return fmt.Errorf("unsupported image extension %q", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return f.Close()
}

// Resize scales src to exactly width x height. The caller closes the result.
func Resize(src gocv.Mat, width, height int) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	return dst
}

// stripes runs fn over [0, rows) split into one band per CPU.
func stripes(rows int, fn func(yStart, yEnd int)) {
	workers := runtime.NumCPU()
	per := (rows + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * per
		if start >= rows {
			break
		}
		end := start + per
		if end > rows {
			end = rows
		}
		wg.Add(1)
		go func(yStart, yEnd int) {
			defer wg.Done()
			fn(yStart, yEnd)
		}(start, end)
	}
	wg.Wait()
}
