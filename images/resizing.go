package images

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// ResampleFilter defines the resampling algorithm used for image scaling.
type ResampleFilter string

const (
	// NearestNeighborFilter uses nearest-neighbor interpolation (fastest, lowest quality).
	NearestNeighborFilter ResampleFilter = "nearest"
	// BilinearFilter uses bilinear interpolation (fast, good quality).
	BilinearFilter ResampleFilter = "bilinear"
	// BicubicFilter uses bicubic interpolation (slower, better quality).
	BicubicFilter ResampleFilter = "bicubic"
	// MitchellNetravaliFilter uses Mitchell-Netravali cubic filter (balanced).
	MitchellNetravaliFilter ResampleFilter = "mitchell"
	// LanczosFilter uses Lanczos resampling with a=3 (slowest, best quality).
	LanczosFilter ResampleFilter = "lanczos3"
)

// ErrUnknownFilter is returned by ParseFilter for unrecognised names.
var ErrUnknownFilter = errors.New("unknown resample filter")

var interpolations = map[ResampleFilter]resize.InterpolationFunction{
	NearestNeighborFilter:   resize.NearestNeighbor,
	BilinearFilter:          resize.Bilinear,
	BicubicFilter:           resize.Bicubic,
	MitchellNetravaliFilter: resize.MitchellNetravali,
	LanczosFilter:           resize.Lanczos3,
}

// ParseFilter resolves a case-insensitive filter name. An empty name selects LanczosFilter.
func ParseFilter(name string) (ResampleFilter, error) {
	if name == "" {
		return LanczosFilter, nil
	}
	f := ResampleFilter(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := interpolations[f]; !ok {
		return "", errors.Wrapf(ErrUnknownFilter, "%q", name)
	}
	return f, nil
}

func (f ResampleFilter) interpolation() resize.InterpolationFunction {
	if interp, ok := interpolations[f]; ok {
		return interp
	}
	return resize.Lanczos3
}

// FitWithin returns the largest size with the aspect ratio of src that fits
// inside box. It never enlarges: if src already fits, src is returned as is.
//
// Arguments:
//   - src: The dimensions of the source image.
//   - box: The bounding box to fit into.
//
// Returns:
//   - Pixels: The shrunk dimensions, each at least 1 and at most the box.
func FitWithin(src, box Pixels) Pixels {
	if !src.Valid() || !box.Valid() {
		return Pixels{}
	}
	if src.Width <= box.Width && src.Height <= box.Height {
		return src
	}

	scale := math.Min(
		float64(box.Width)/float64(src.Width),
		float64(box.Height)/float64(src.Height),
	)

	return Pixels{
		Width:  clamp(int(math.Round(float64(src.Width)*scale)), 1, box.Width),
		Height: clamp(int(math.Round(float64(src.Height)*scale)), 1, box.Height),
	}
}

// CenterOffset returns the top-left point at which inner is centred inside
// outer. Odd margins are floored, so the right/bottom margin may be one pixel
// wider than the left/top.
func CenterOffset(outer, inner Pixels) image.Point {
	return image.Point{
		X: (outer.Width - inner.Width) / 2,
		Y: (outer.Height - inner.Height) / 2,
	}
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

// Resize scales img to exactly size using filter. The source is returned
// untouched when it already has that size.
func Resize(img image.Image, size Pixels, filter ResampleFilter) image.Image {
	if SizeOf(img) == size {
		return img
	}
	return resize.Resize(uint(size.Width), uint(size.Height), img, filter.interpolation())
}

// NewCanvas allocates an image of exactly size filled with fill.
func NewCanvas(size Pixels, fill color.Color) *image.NRGBA {
	return imaging.New(size.Width, size.Height, fill)
}

// Composite overwrites canvas with img placed at offset. No blending takes
// place: pixels of img replace the canvas pixels they cover.
func Composite(canvas draw.Image, img image.Image, offset image.Point) {
	draw.Copy(canvas, offset, img, img.Bounds(), draw.Src, nil)
}

// Placement records how a source image was fitted onto a target canvas.
type Placement struct {
	// Target is the canvas size.
	Target Pixels
	// Inner is the size of the shrunk source on the canvas.
	Inner Pixels
	// Offset is the top-left corner of the shrunk source.
	Offset image.Point
}

// PlanFit computes the placement of a src-sized image on a target canvas.
func PlanFit(src, target Pixels) Placement {
	inner := FitWithin(src, target)
	return Placement{
		Target: target,
		Inner:  inner,
		Offset: CenterOffset(target, inner),
	}
}

// FitWithPadding shrinks img to fit target, preserving its aspect ratio, and
// centres it on a canvas of exactly target filled with fill.
//
// Arguments:
//   - img: The source image, expected to be opaque.
//   - target: The exact output size.
//   - fill: The padding colour.
//   - filter: The resampling filter used when shrinking.
//
// Returns:
//   - *image.NRGBA: The padded canvas.
//   - Placement: Where the shrunk image was placed.
func FitWithPadding(img image.Image, target Pixels, fill color.Color, filter ResampleFilter) (*image.NRGBA, Placement) {
	placement := PlanFit(SizeOf(img), target)
	shrunk := Resize(img, placement.Inner, filter)

	canvas := NewCanvas(target, fill)
	Composite(canvas, shrunk, placement.Offset)

	return canvas, placement
}
