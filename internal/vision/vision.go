// Package vision holds the detection and OCR collaborators the plate reader
// consumes, and the image plumbing between them.
package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"plate-service/internal/plate"
)

// Box is an axis-aligned rectangle in integer pixel coordinates.
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (b Box) Width() int  { return b.X2 - b.X1 }
func (b Box) Height() int { return b.Y2 - b.Y1 }

func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Offset translates b by the origin of an enclosing box.
func (b Box) Offset(origin Box) Box {
	return Box{X1: b.X1 + origin.X1, Y1: b.Y1 + origin.Y1, X2: b.X2 + origin.X1, Y2: b.Y2 + origin.Y1}
}

// Clamp limits b to the bounds of an image of the given size.
func (b Box) Clamp(width, height int) Box {
	return Box{
		X1: clamp(b.X1, 0, width),
		Y1: clamp(b.Y1, 0, height),
		X2: clamp(b.X2, 0, width),
		Y2: clamp(b.Y2, 0, height),
	}
}

func (b Box) Empty() bool {
	return b.X2 <= b.X1 || b.Y2 <= b.Y1
}

// BoxFromRelative converts a box given as fractions of the image size.
func BoxFromRelative(left, top, width, height float64, imgWidth, imgHeight int) Box {
	return Box{
		X1: int(math.Round(left * float64(imgWidth))),
		Y1: int(math.Round(top * float64(imgHeight))),
		X2: int(math.Round((left + width) * float64(imgWidth))),
		Y2: int(math.Round((top + height) * float64(imgHeight))),
	}.Clamp(imgWidth, imgHeight)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type VehicleDetector interface {
	DetectVehicles(ctx context.Context, img image.Image) ([]Box, error)
}

type PlateDetector interface {
	DetectPlates(ctx context.Context, img image.Image) ([]Box, error)
}

type TextReader interface {
	ReadText(ctx context.Context, img image.Image) ([]plate.Fragment, error)
}

// Decode reads a photo, applying its EXIF orientation.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Crop cuts box out of img. The result is re-based at (0, 0).
func Crop(img image.Image, box Box) *image.NRGBA {
	b := img.Bounds()
	r := box.Rect().Add(b.Min).Intersect(b)
	return imaging.Crop(img, r)
}

func encode(img image.Image, format imaging.Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(92)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func size(img image.Image) (int, int) {
	b := img.Bounds()
	return b.Dx(), b.Dy()
}
