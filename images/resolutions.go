// Package images provides the target screenshot resolutions accepted by the
// app stores together with the arithmetic and codec operations used to fit
// arbitrary screenshots onto them.
package images

import (
	"fmt"
	"math"
)

// Orientation of a resolution.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// ResolutionAlias is a short, unique name for a target resolution.
type ResolutionAlias string

// Defines the aliases of the default target resolutions.
const (
	ResolutionAliasIPhone69Portrait    ResolutionAlias = "iphone-6.9-portrait"
	ResolutionAliasIPhone69Landscape   ResolutionAlias = "iphone-6.9-landscape"
	ResolutionAliasIPhone67Portrait    ResolutionAlias = "iphone-6.7-portrait"
	ResolutionAliasIPhone67Landscape   ResolutionAlias = "iphone-6.7-landscape"
	ResolutionAliasIPad13Portrait      ResolutionAlias = "ipad-13-portrait"
	ResolutionAliasIPad13Landscape     ResolutionAlias = "ipad-13-landscape"
	ResolutionAliasIPadPro129Portrait  ResolutionAlias = "ipad-12.9-portrait"
	ResolutionAliasIPadPro129Landscape ResolutionAlias = "ipad-12.9-landscape"
)

// Pixels describes the exact dimensions of an image or resolution.
type Pixels struct {
	Width  int `json:"width" yaml:"width" toml:"width"`
	Height int `json:"height" yaml:"height" toml:"height"`
}

// String returns the dimensions as "WxH".
func (p Pixels) String() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// Valid reports whether both dimensions are positive.
func (p Pixels) Valid() bool {
	return p.Width > 0 && p.Height > 0
}

// AspectRatio returns width divided by height, or 0 for invalid dimensions.
func (p Pixels) AspectRatio() float64 {
	if !p.Valid() {
		return 0
	}
	return float64(p.Width) / float64(p.Height)
}

// Orientation returns Landscape when the width exceeds the height, otherwise Portrait.
func (p Pixels) Orientation() Orientation {
	if p.Width > p.Height {
		return Landscape
	}
	return Portrait
}

// Resolution is a single entry of the target allow-list.
type Resolution struct {
	Alias  ResolutionAlias `json:"alias"`
	Device string          `json:"device"`
	Pixels Pixels          `json:"pixels"`
}

// GetMegaPixels calculates the megapixel value rounded to two decimal places.
func (r Resolution) GetMegaPixels() float64 {
	if !r.Pixels.Valid() {
		return 0.0
	}
	mp := float64(r.Pixels.Width*r.Pixels.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	if r.Alias == "" {
		return r.Pixels.String()
	}
	return fmt.Sprintf("%s (%s, %s)", r.Alias, r.Pixels, r.Pixels.Orientation())
}

// DefaultTargets is the ordered allow-list of output sizes. The order is
// significant: NearestTarget resolves ties in favour of the earlier entry.
var DefaultTargets = []Resolution{
	{Alias: ResolutionAliasIPhone69Portrait, Device: "iPhone 6.9\"", Pixels: Pixels{Width: 1320, Height: 2868}},
	{Alias: ResolutionAliasIPhone69Landscape, Device: "iPhone 6.9\"", Pixels: Pixels{Width: 2868, Height: 1320}},
	{Alias: ResolutionAliasIPhone67Portrait, Device: "iPhone 6.7\"", Pixels: Pixels{Width: 1290, Height: 2796}},
	{Alias: ResolutionAliasIPhone67Landscape, Device: "iPhone 6.7\"", Pixels: Pixels{Width: 2796, Height: 1290}},
	{Alias: ResolutionAliasIPad13Portrait, Device: "iPad 13\"", Pixels: Pixels{Width: 2064, Height: 2752}},
	{Alias: ResolutionAliasIPad13Landscape, Device: "iPad 13\"", Pixels: Pixels{Width: 2752, Height: 2064}},
	{Alias: ResolutionAliasIPadPro129Portrait, Device: "iPad Pro 12.9\"", Pixels: Pixels{Width: 2048, Height: 2732}},
	{Alias: ResolutionAliasIPadPro129Landscape, Device: "iPad Pro 12.9\"", Pixels: Pixels{Width: 2732, Height: 2048}},
}

// TargetsFromPixels wraps bare dimensions as unnamed resolutions, keeping their order.
func TargetsFromPixels(sizes []Pixels) []Resolution {
	targets := make([]Resolution, 0, len(sizes))
	for _, size := range sizes {
		targets = append(targets, Resolution{Pixels: size})
	}
	return targets
}

// GetResolutionByType retrieves a default target by its alias.
func GetResolutionByType(alias ResolutionAlias) (Resolution, bool) {
	for _, res := range DefaultTargets {
		if res.Alias == alias {
			return res, true
		}
	}
	return Resolution{}, false
}

// FindExact returns the first target whose dimensions equal size exactly.
//
// Arguments:
//   - size: The dimensions of the image.
//   - targets: The allow-list to search.
//
// Returns:
//   - Resolution: The matching target.
//   - bool: True if size is already an allowed output size.
func FindExact(size Pixels, targets []Resolution) (Resolution, bool) {
	for _, res := range targets {
		if res.Pixels == size {
			return res, true
		}
	}
	return Resolution{}, false
}

// NearestTarget selects the target whose aspect ratio is closest to that of size.
// The scan is a stable minimum: a later candidate replaces the current best
// only when strictly closer, so ties go to the earliest entry.
// O(N) complexity, where N is the number of targets.
//
// Arguments:
//   - size: The dimensions of the image.
//   - targets: The allow-list to search.
//
// Returns:
//   - Resolution: The closest target.
//   - bool: False if targets is empty or size has a non-positive dimension.
func NearestTarget(size Pixels, targets []Resolution) (Resolution, bool) {
	if !size.Valid() {
		return Resolution{}, false
	}

	ratio := size.AspectRatio()

	var best Resolution
	bestDistance := math.Inf(1)
	found := false
	for _, res := range targets {
		if !res.Pixels.Valid() {
			continue
		}
		distance := math.Abs(ratio - res.Pixels.AspectRatio())
		if distance < bestDistance {
			best = res
			bestDistance = distance
			found = true
		}
	}
	return best, found
}
