package images

import (
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ImageFormat represents supported image formats
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
)

// ErrUnsupportedFormat is returned for file extensions outside the accepted set.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// extensions maps lower-cased file extensions to their format.
var extensions = map[string]ImageFormat{
	".png":  FormatPNG,
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
}

// FormatFromFilename returns the format implied by the extension of name.
// The comparison is case-insensitive, so "SHOT.PNG" and "shot.png" agree.
func FormatFromFilename(name string) (ImageFormat, error) {
	ext := strings.ToLower(filepath.Ext(name))
	format, ok := extensions[ext]
	if !ok {
		return "", errors.Wrapf(ErrUnsupportedFormat, "extension %q", ext)
	}
	return format, nil
}

// IsSupported reports whether name has one of the accepted image extensions.
func IsSupported(name string) bool {
	_, err := FormatFromFilename(name)
	return err == nil
}

// codec returns the imaging encoder format for f.
func (f ImageFormat) codec() (imaging.Format, error) {
	switch f {
	case FormatJPEG:
		return imaging.JPEG, nil
	case FormatPNG:
		return imaging.PNG, nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedFormat, "format %q", string(f))
	}
}
