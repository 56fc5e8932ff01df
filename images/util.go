package images

import (
	"crypto/md5"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ComputeChecksum generates a deterministic checksum of the pixel data of img.
// Two images with equal dimensions and equal non-premultiplied RGBA values
// produce the same checksum regardless of their concrete image type.
//
// Arguments:
// - img: The image to compute checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string.
//
// Example:
//
// ```go
//
//	checksum := ComputeChecksum(canvas)
//	fmt.Printf("Output checksum: %s\n", checksum)
//
// ```
func ComputeChecksum(img image.Image) string {
	if img == nil || img.Bounds().Empty() {
		return "empty"
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) || nrgba.Stride != 4*nrgba.Rect.Dx() {
		nrgba = imaging.Clone(img)
	}

	hash := md5.New()
	fmt.Fprintf(hash, "%dx%d:", nrgba.Rect.Dx(), nrgba.Rect.Dy())
	hash.Write(nrgba.Pix)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
