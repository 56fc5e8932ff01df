package util

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/nvr-ai/screenfit/images"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Name is the base name of the file, reused for the output file.
	Name string
	// Format is the format implied by the file extension.
	Format images.ImageFormat
}

// LoadDirectoryImageFiles lists the image files of a directory.
//
// Only regular files (or symlinks to them) with an accepted extension (compared case-insensitively)
// are returned; directories and other files are skipped without error. The
// order is the directory listing order, which carries no meaning.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: The accepted files. Their contents are not read.
// - error: Error if the directory cannot be listed.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read input directory %s", dir)
	}

	var files []ImageFile
	for _, entry := range entries {
		format, err := images.FormatFromFilename(entry.Name())
		if err != nil {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if !isRegularFile(entry, path) {
			continue
		}

		files = append(files, ImageFile{
			Path:   path,
			Name:   entry.Name(),
			Format: format,
		})
	}

	return files, nil
}

// isRegularFile reports whether entry is a regular file, following symlinks.
func isRegularFile(entry os.DirEntry, path string) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
