package resizer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/screenfit/config"
	"github.com/nvr-ai/screenfit/images"
	"github.com/nvr-ai/screenfit/util"
)

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
)

// exifRotate90 is an APP1 segment with EXIF orientation 6.
var exifRotate90 = []byte{
	0xff, 0xe1, 0x00, 0x22,
	'E', 'x', 'i', 'f', 0x00, 0x00,
	'M', 'M', 0x00, 0x2a, 0x00, 0x00, 0x00, 0x08,
	0x00, 0x01,
	0x01, 0x12, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, 0x00, 0x06, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

func solid(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// striped paints a distinct colour per row so pixel comparisons are meaningful.
func striped(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(y * 7), G: uint8(x * 3), B: 90, A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func writeJPEG(t *testing.T, path string, img image.Image, exif []byte) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	data := buf.Bytes()
	if exif != nil {
		data = append(append(append([]byte{}, data[:2]...), exif...), data[2:]...)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func readSize(t *testing.T, path string) images.Pixels {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	return images.Pixels{Width: cfg.Width, Height: cfg.Height}
}

// newTestResizer builds a resizer over fresh temp directories with small targets.
func newTestResizer(t *testing.T, mutate func(*config.Config)) (*Resizer, *config.Config, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.InputDir = filepath.Join(root, "captures")
	cfg.OutputDir = filepath.Join(root, "out", "resized")
	cfg.Targets = []images.Pixels{{Width: 20, Height: 40}, {Width: 40, Height: 20}, {Width: 30, Height: 30}}
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, os.MkdirAll(cfg.InputDir, 0o755))

	var progress bytes.Buffer
	r, err := New(cfg, WithProgress(&progress))
	require.NoError(t, err)
	return r, cfg, &progress
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, config.ErrInvalid)

	cfg := config.Default()
	cfg.Targets = nil
	_, err = New(cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRun_MixedDirectory(t *testing.T) {
	r, cfg, progress := newTestResizer(t, nil)

	writePNG(t, filepath.Join(cfg.InputDir, "exact.png"), striped(20, 40))
	writePNG(t, filepath.Join(cfg.InputDir, "WIDE.PNG"), solid(100, 50, red))
	writeJPEG(t, filepath.Join(cfg.InputDir, "photo.jpeg"), solid(10, 10, red), nil)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "notes.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "anim.gif"), []byte("GIF89a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(cfg.InputDir, "sub.png"), 0o755))

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	absOut, err := filepath.Abs(cfg.OutputDir)
	require.NoError(t, err)
	assert.Equal(t, absOut, summary.OutputDir)
	assert.Equal(t, 1, summary.Copied)
	assert.Equal(t, 2, summary.Resized)
	assert.Empty(t, summary.Failures)

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"exact.png", "WIDE.PNG", "photo.jpeg"}, names)

	assert.Equal(t, images.Pixels{Width: 20, Height: 40}, readSize(t, filepath.Join(cfg.OutputDir, "exact.png")))
	assert.Equal(t, images.Pixels{Width: 40, Height: 20}, readSize(t, filepath.Join(cfg.OutputDir, "WIDE.PNG")))
	assert.Equal(t, images.Pixels{Width: 30, Height: 30}, readSize(t, filepath.Join(cfg.OutputDir, "photo.jpeg")))

	out := progress.String()
	assert.Contains(t, out, "exact.png already 20x40, copied as-is")
	assert.Contains(t, out, "WIDE.PNG resized from 100x50 to 40x20")
	assert.Contains(t, out, "photo.jpeg resized from 10x10 to 30x30")
	assert.Contains(t, out, "Done! Output saved to "+absOut)
	assert.NotContains(t, out, "notes.txt")
	assert.NotContains(t, out, "failed")
}

func TestRun_CopiedImageKeepsPixels(t *testing.T) {
	tests := []struct {
		name  string
		write func(t *testing.T, path string, img image.Image)
	}{
		{name: "exact.png", write: writePNG},
		{name: "exact.jpg", write: func(t *testing.T, path string, img image.Image) { writeJPEG(t, path, img, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, cfg, progress := newTestResizer(t, nil)

			inPath := filepath.Join(cfg.InputDir, tt.name)
			tt.write(t, inPath, striped(20, 40))

			_, err := r.Run(context.Background())
			require.NoError(t, err)
			assert.Contains(t, progress.String(), tt.name+" already 20x40, copied as-is")

			in, err := images.Load(inPath)
			require.NoError(t, err)
			out, err := images.Load(filepath.Join(cfg.OutputDir, tt.name))
			require.NoError(t, err)
			assert.Equal(t, images.ComputeChecksum(in.Raster), images.ComputeChecksum(out.Raster))

			source, err := os.ReadFile(inPath)
			require.NoError(t, err)
			written, err := os.ReadFile(filepath.Join(cfg.OutputDir, tt.name))
			require.NoError(t, err)
			assert.Equal(t, source, written, "source bytes are written unchanged")
		})
	}
}

func TestRun_PaddingIsWhiteAndCentred(t *testing.T) {
	r, cfg, _ := newTestResizer(t, nil)

	// 10x10 fits inside 30x30 untouched, so it lands at (10, 10).
	writePNG(t, filepath.Join(cfg.InputDir, "square.png"), solid(10, 10, red))

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	out, err := images.Load(filepath.Join(cfg.OutputDir, "square.png"))
	require.NoError(t, err)
	require.Equal(t, images.Pixels{Width: 30, Height: 30}, out.Size())

	assert.Equal(t, white, out.Raster.NRGBAAt(9, 9))
	assert.Equal(t, red, out.Raster.NRGBAAt(10, 10))
	assert.Equal(t, red, out.Raster.NRGBAAt(19, 19))
	assert.Equal(t, white, out.Raster.NRGBAAt(20, 20))
}

func TestRun_TransparentPixelsBecomeOpaque(t *testing.T) {
	r, cfg, _ := newTestResizer(t, nil)

	writePNG(t, filepath.Join(cfg.InputDir, "clear.png"), solid(20, 40, color.NRGBA{R: 1, G: 2, B: 3, A: 0}))

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	out, err := images.Load(filepath.Join(cfg.OutputDir, "clear.png"))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, out.Raster.NRGBAAt(5, 5))
}

func TestRun_OrientationAppliedBeforeClassifying(t *testing.T) {
	r, cfg, progress := newTestResizer(t, nil)

	// Stored as 40x20, displayed as 20x40.
	writeJPEG(t, filepath.Join(cfg.InputDir, "rotated.jpg"), solid(40, 20, red), exifRotate90)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Copied)
	assert.Equal(t, images.Pixels{Width: 20, Height: 40}, readSize(t, filepath.Join(cfg.OutputDir, "rotated.jpg")))
	assert.Contains(t, progress.String(), "rotated.jpg already 20x40")
}

func TestProcessFile_NoTarget(t *testing.T) {
	r, cfg, _ := newTestResizer(t, nil)
	r.targets = nil

	path := filepath.Join(cfg.InputDir, "shot.png")
	writePNG(t, path, solid(10, 10, red))

	_, err := r.ProcessFile(util.ImageFile{Path: path, Name: "shot.png", Format: images.FormatPNG}, t.TempDir())

	var fe *FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, StageClassify, fe.Stage)
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestRun_EmptyInputDirectory(t *testing.T) {
	r, cfg, progress := newTestResizer(t, nil)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed())

	info, err := os.Stat(cfg.OutputDir)
	require.NoError(t, err, "output directory and its parents are created")
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Contains(t, progress.String(), "Done! Output saved to")
}

func TestRun_MissingInputDirectory(t *testing.T) {
	r, cfg, progress := newTestResizer(t, nil)
	require.NoError(t, os.RemoveAll(cfg.InputDir))

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotContains(t, progress.String(), "Done!")
}

func TestRun_AbortsOnFirstErrorByDefault(t *testing.T) {
	r, cfg, progress := newTestResizer(t, nil)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "a_bad.png"), []byte("not a png"), 0o644))
	writePNG(t, filepath.Join(cfg.InputDir, "b_good.png"), solid(20, 40, red))

	summary, err := r.Run(context.Background())
	require.Error(t, err)

	var fe *FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "a_bad.png", fe.Name)
	assert.Equal(t, StageLoad, fe.Stage)
	assert.ErrorIs(t, err, images.ErrDecode)

	assert.Equal(t, 0, summary.Processed())
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "b_good.png"))
	assert.NotContains(t, progress.String(), "Done!")
}

func TestRun_KeepGoingReportsFailures(t *testing.T) {
	r, cfg, progress := newTestResizer(t, func(c *config.Config) { c.KeepGoing = true })

	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "a_bad.png"), []byte("not a png"), 0o644))
	writePNG(t, filepath.Join(cfg.InputDir, "b_good.png"), solid(20, 40, red))

	summary, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrFilesFailed)

	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "a_bad.png", summary.Failures[0].Name)
	assert.Equal(t, StageLoad, summary.Failures[0].Stage)
	assert.Equal(t, 1, summary.Copied)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "b_good.png"))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "a_bad.png"))

	out := progress.String()
	assert.Contains(t, out, "❌ a_bad.png")
	assert.Contains(t, out, "Done!")
	assert.Contains(t, out, "1 of 2 files failed")
}

func TestRun_WriteFailure(t *testing.T) {
	r, cfg, _ := newTestResizer(t, nil)

	writePNG(t, filepath.Join(cfg.InputDir, "blocked.png"), solid(20, 40, red))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.OutputDir, "blocked.png"), 0o755))

	_, err := r.Run(context.Background())

	var fe *FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, StageWrite, fe.Stage)
	assert.ErrorIs(t, err, images.ErrEncode)
}

func TestRun_OverwritesPreviousOutput(t *testing.T) {
	r, cfg, _ := newTestResizer(t, nil)

	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	writePNG(t, filepath.Join(cfg.OutputDir, "shot.png"), solid(5, 5, red))
	writePNG(t, filepath.Join(cfg.InputDir, "shot.png"), solid(40, 20, red))

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, images.Pixels{Width: 40, Height: 20}, readSize(t, filepath.Join(cfg.OutputDir, "shot.png")))
}

func TestRun_CancelledContext(t *testing.T) {
	r, cfg, progress := newTestResizer(t, nil)
	writePNG(t, filepath.Join(cfg.InputDir, "shot.png"), solid(20, 40, red))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Processed())
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "shot.png"))
	assert.NotContains(t, progress.String(), "Done!")
}

func TestRun_DebugLogging(t *testing.T) {
	var logs bytes.Buffer
	logger := log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel})

	r, cfg, _ := newTestResizer(t, nil)
	r.logger = logger
	writePNG(t, filepath.Join(cfg.InputDir, "wide.png"), solid(100, 50, red))

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, logs.String(), "Fitted image")
	assert.Contains(t, logs.String(), "checksum")
	assert.Contains(t, logs.String(), "Operation timing")
}

// TestProcessFile_DefaultTargets covers the full-size screenshot scenarios.
func TestProcessFile_DefaultTargets(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.InputDir = filepath.Join(root, "captures")
	cfg.OutputDir = filepath.Join(root, "captures_resized")
	require.NoError(t, os.MkdirAll(cfg.InputDir, 0o755))
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))

	r, err := New(cfg, WithProgress(&bytes.Buffer{}))
	require.NoError(t, err)

	t.Run("2:1 landscape is padded onto the nearest ratio", func(t *testing.T) {
		path := filepath.Join(cfg.InputDir, "wide.png")
		writePNG(t, path, solid(4000, 2000, red))

		result, err := r.ProcessFile(util.ImageFile{Path: path, Name: "wide.png", Format: images.FormatPNG}, cfg.OutputDir)
		require.NoError(t, err)

		assert.True(t, result.Resized)
		assert.Equal(t, images.ResolutionAliasIPhone67Landscape, result.Target.Alias)
		assert.Equal(t, images.Pixels{Width: 2580, Height: 1290}, result.Placement.Inner)
		assert.Equal(t, image.Point{X: 108, Y: 0}, result.Placement.Offset)
		assert.Equal(t, images.Pixels{Width: 2796, Height: 1290}, readSize(t, result.OutputPath))
	})

	t.Run("allowed size is copied unchanged", func(t *testing.T) {
		path := filepath.Join(cfg.InputDir, "exact.png")
		writePNG(t, path, solid(1320, 2868, red))

		result, err := r.ProcessFile(util.ImageFile{Path: path, Name: "exact.png", Format: images.FormatPNG}, cfg.OutputDir)
		require.NoError(t, err)

		assert.False(t, result.Resized)
		assert.Equal(t, images.ResolutionAliasIPhone69Portrait, result.Target.Alias)
		assert.Equal(t, images.Pixels{Width: 1320, Height: 2868}, readSize(t, result.OutputPath))
	})
}
