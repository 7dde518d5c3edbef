// Package render draws debug overlays of keypad references, matched
// smudges and phone outlines.
package render

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strconv"

	"smudge-pin/pkg/geometry"

	"gocv.io/x/gocv"
)

var (
	Green  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Blue   = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// Boxes returns a copy of img with every box outlined and labelled.
// labels may be shorter than boxes. The caller closes the result.
func Boxes(img gocv.Mat, boxes []geometry.BoundingBox, labels []string, col color.RGBA) gocv.Mat {
	out := img.Clone()
	for i, b := range boxes {
		rect := toRect(b)
		gocv.Rectangle(&out, rect, col, 2)

		if i >= len(labels) || labels[i] == "" {
			continue
		}
		labelPos := image.Point{X: rect.Min.X, Y: rect.Min.Y - 5}
		if labelPos.Y < 15 {
			labelPos.Y = rect.Max.Y + 15
		}
		gocv.PutText(&out, labels[i], labelPos, gocv.FontHersheyPlain, 1.5, col, 2)
	}
	return out
}

// Reference outlines the 10 keypad boxes labelled with their digit.
func Reference(img gocv.Mat, boxes [10]geometry.BoundingBox) gocv.Mat {
	labels := make([]string, len(boxes))
	for i := range labels {
		labels[i] = strconv.Itoa(i)
	}
	return Boxes(img, boxes[:], labels, Green)
}

// Sequence outlines the boxes of a PIN in entry order, labelled "1:d", "2:d"...
func Sequence(img gocv.Mat, boxes []geometry.BoundingBox, digits []int) gocv.Mat {
	labels := make([]string, len(boxes))
	for i := range labels {
		if i < len(digits) {
			labels[i] = fmt.Sprintf("%d:%d", i+1, digits[i])
		}
	}
	return Boxes(img, boxes, labels, Red)
}

// Quad outlines a refined phone quad whose corners are ordered
// TL, TR, BL, BR.
func Quad(img gocv.Mat, corners [4]geometry.Point2D) gocv.Mat {
	out := img.Clone()
	ring := []geometry.Point2D{corners[0], corners[1], corners[3], corners[2]}
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		gocv.Line(&out, toPoint(p), toPoint(q), Blue, 2)
		gocv.Circle(&out, toPoint(p), 6, Yellow, -1)
	}
	return out
}

// EncodePNG encodes img as PNG.
func EncodePNG(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

// WritePNG encodes img as PNG into path.
func WritePNG(path string, img gocv.Mat) error {
	data, err := EncodePNG(img)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func toRect(b geometry.BoundingBox) image.Rectangle {
	xyxy := b.XYXY()
	return image.Rect(int(xyxy[0]), int(xyxy[1]), int(xyxy[2]), int(xyxy[3]))
}

func toPoint(p geometry.Point2D) image.Point {
	return image.Pt(int(p.X+0.5), int(p.Y+0.5))
}
