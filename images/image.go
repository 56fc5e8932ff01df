package images

import (
	"bytes"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

var (
	// ErrDecode is returned when an image file cannot be read or decoded.
	ErrDecode = errors.New("failed to decode image")
	// ErrEncode is returned when an image cannot be encoded or written.
	ErrEncode = errors.New("failed to encode image")
)

// DefaultJPEGQuality is the JPEG quality used when none is configured.
const DefaultJPEGQuality = 95

// Image represents a decoded, orientation-normalised image.
type Image struct {
	// The format of the image.
	Format ImageFormat `json:"format" yaml:"format"`
	// The opaque pixel data of the image.
	Raster *image.NRGBA `json:"-" yaml:"-"`
	// The encoded bytes the image was decoded from.
	Encoded []byte `json:"-" yaml:"-"`
}

// Size returns the pixel dimensions of the image.
func (i *Image) Size() Pixels {
	if i == nil || i.Raster == nil {
		return Pixels{}
	}
	return SizeOf(i.Raster)
}

// SizeOf returns the pixel dimensions of img.
func SizeOf(img image.Image) Pixels {
	b := img.Bounds()
	return Pixels{Width: b.Dx(), Height: b.Dy()}
}

// Decode reads an image from r and applies its EXIF orientation so that the
// pixel grid matches how the image is meant to be viewed. The result is
// converted to an opaque RGB raster.
//
// Arguments:
//   - r: The encoded image data.
//   - format: The format reported for the decoded image.
//
// Returns:
//   - *Image: The decoded image.
//   - error: ErrDecode, wrapped, if the data is not a readable image.
func Decode(r io.Reader, format ImageFormat) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "read: %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "%v", err)
	}
	return &Image{Format: format, Raster: Opaque(img), Encoded: data}, nil
}

// Unaltered reports whether the encoded bytes, decoded as stored without
// orientation or alpha handling, hold exactly the pixels of Raster. When
// true the bytes can be written out in place of a re-encoded Raster.
func (i *Image) Unaltered() bool {
	if i == nil || i.Raster == nil || len(i.Encoded) == 0 {
		return false
	}
	raw, err := imaging.Decode(bytes.NewReader(i.Encoded))
	if err != nil {
		return false
	}
	return ComputeChecksum(raw) == ComputeChecksum(i.Raster)
}

// WriteEncoded writes the bytes img was decoded from to path, replacing any
// existing file.
func WriteEncoded(path string, img *Image) error {
	if img == nil || len(img.Encoded) == 0 {
		return errors.Wrapf(ErrEncode, "no encoded data for %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(ErrEncode, "create %s: %v", path, err)
	}
	if _, err := io.Copy(f, bytes.NewReader(img.Encoded)); err != nil {
		f.Close()
		return errors.Wrapf(ErrEncode, "write %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(ErrEncode, "close %s: %v", path, err)
	}
	return nil
}

// Load opens and decodes the image at path, taking its format from the extension.
func Load(path string) (*Image, error) {
	format, err := FormatFromFilename(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "open %s: %v", path, err)
	}
	defer f.Close()

	img, err := Decode(f, format)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return img, nil
}

// Opaque returns a copy of img with every pixel's alpha forced to fully
// opaque. Colour channels are kept as stored, which drops transparency the
// same way an RGBA to RGB conversion does.
func Opaque(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// Encode writes img to w in the given format. quality applies to JPEG only;
// values outside 1..100 fall back to DefaultJPEGQuality.
func Encode(w io.Writer, img image.Image, format ImageFormat, quality int) error {
	codec, err := format.codec()
	if err != nil {
		return err
	}
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	if err := imaging.Encode(w, img, codec, imaging.JPEGQuality(quality)); err != nil {
		return errors.Wrapf(ErrEncode, "%v", err)
	}
	return nil
}

// Save encodes img to path, replacing any existing file. The format follows
// the extension of path.
func Save(path string, img image.Image, quality int) error {
	format, err := FormatFromFilename(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(ErrEncode, "create %s: %v", path, err)
	}

	if err := Encode(f, img, format, quality); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(ErrEncode, "close %s: %v", path, err)
	}
	return nil
}
