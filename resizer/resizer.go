// Package resizer converts a directory of screenshots to the configured
// target sizes. Each file is loaded, classified against the allow-list and
// either re-encoded unchanged or shrunk and padded onto the nearest target.
// Files are processed one at a time in directory listing order.
package resizer

import (
	"context"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/nvr-ai/screenfit/config"
	"github.com/nvr-ai/screenfit/images"
	"github.com/nvr-ai/screenfit/profiler"
	"github.com/nvr-ai/screenfit/util"
)

// Resizer fits screenshots onto the target allow-list.
type Resizer struct {
	config   *config.Config
	targets  []images.Resolution
	fill     color.NRGBA
	filter   images.ResampleFilter
	logger   *log.Logger
	reporter *Reporter
	timings  *profiler.Profiler
}

// Option configures a Resizer.
type Option func(*Resizer)

// WithLogger sets the diagnostics logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(r *Resizer) { r.logger = l }
}

// WithProgress sets where progress lines are written. The default is stdout.
func WithProgress(w io.Writer) Option {
	return func(r *Resizer) { r.reporter = NewReporter(w) }
}

// Result describes what happened to a single file.
type Result struct {
	// Name is the file name, shared by input and output.
	Name string
	// OutputPath is where the result was written.
	OutputPath string
	// Source is the size of the orientation-normalised input.
	Source images.Pixels
	// Target is the allow-listed size of the output.
	Target images.Resolution
	// Resized is false when the input already had an allowed size.
	Resized bool
	// Placement is the fit applied when Resized is true.
	Placement images.Placement
}

// Summary aggregates the results of a run.
type Summary struct {
	// OutputDir is the absolute output directory.
	OutputDir string
	// Copied counts files written unchanged.
	Copied int
	// Resized counts files fitted onto a target.
	Resized int
	// Failures lists files that failed while KeepGoing was set.
	Failures []*FileError
}

// Processed returns the number of files attempted.
func (s *Summary) Processed() int {
	return s.Copied + s.Resized + len(s.Failures)
}

// New creates a Resizer after validating cfg.
//
// Arguments:
//   - cfg: The configuration to use.
//   - opts: Optional logger and progress writer.
//
// Returns:
//   - *Resizer: The configured resizer.
//   - error: config.ErrInvalid, wrapped, if cfg does not validate.
func New(cfg *config.Config, opts ...Option) (*Resizer, error) {
	if cfg == nil {
		return nil, errors.Wrap(config.ErrInvalid, "config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fill, err := cfg.Background()
	if err != nil {
		return nil, errors.Wrap(config.ErrInvalid, err.Error())
	}
	filter, err := cfg.ResampleFilter()
	if err != nil {
		return nil, errors.Wrap(config.ErrInvalid, err.Error())
	}

	r := &Resizer{
		config:  cfg,
		targets: cfg.Resolutions(),
		fill:    fill,
		filter:  filter,
		timings: profiler.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	if r.reporter == nil {
		r.reporter = NewReporter(os.Stdout)
	}

	return r, nil
}

// Run processes every supported file of the input directory.
//
// The output directory is created first, so it exists even when the input
// holds no images. By default the first failing file aborts the run and no
// completion line is written. With KeepGoing set, failures are reported and
// counted, the run continues, and ErrFilesFailed is returned at the end if
// any file failed. Cancellation of ctx is observed between files.
//
// Arguments:
//   - ctx: Cancels the run between files.
//
// Returns:
//   - *Summary: Counts of the files handled so far, also on error.
//   - error: The first failure, ErrFilesFailed, or ctx.Err().
func (r *Resizer) Run(ctx context.Context) (*Summary, error) {
	outputDir, err := filepath.Abs(r.config.OutputDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve output directory %s", r.config.OutputDir)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", outputDir)
	}

	summary := &Summary{OutputDir: outputDir}
	defer r.timings.Report(r.logger)

	files, err := util.LoadDirectoryImageFiles(r.config.InputDir)
	if err != nil {
		return summary, err
	}
	r.logger.Debug("Listed input directory", "dir", r.config.InputDir, "images", len(files))

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := r.ProcessFile(file, outputDir)
		if err != nil {
			if !r.config.KeepGoing {
				return summary, err
			}
			r.reporter.Failed(file.Name, err)
			r.logger.Debug("Skipping file", "file", file.Name, "err", err)
			summary.Failures = append(summary.Failures, asFileError(file.Name, err))
			continue
		}

		if result.Resized {
			summary.Resized++
			r.reporter.Resized(result.Name, result.Source, result.Target)
		} else {
			summary.Copied++
			r.reporter.Copied(result.Name, result.Source)
		}
	}

	r.reporter.Done(summary)

	if len(summary.Failures) > 0 {
		return summary, errors.Wrapf(ErrFilesFailed, "%d of %d files", len(summary.Failures), summary.Processed())
	}
	return summary, nil
}

// ProcessFile converts a single file into outputDir under the same name.
//
// Arguments:
//   - file: The input file.
//   - outputDir: An existing directory to write to.
//
// Returns:
//   - *Result: What was done to the file.
//   - error: A *FileError naming the failing stage.
func (r *Resizer) ProcessFile(file util.ImageFile, outputDir string) (*Result, error) {
	done := r.timings.StartOperation("load")
	img, err := images.Load(file.Path)
	done()
	if err != nil {
		return nil, &FileError{Name: file.Name, Stage: StageLoad, Err: err}
	}

	size := img.Size()
	result := &Result{
		Name:       file.Name,
		OutputPath: filepath.Join(outputDir, file.Name),
		Source:     size,
	}

	if target, ok := images.FindExact(size, r.targets); ok {
		result.Target = target
		if err := r.copyExact(result.OutputPath, img); err != nil {
			return nil, &FileError{Name: file.Name, Stage: StageWrite, Err: err}
		}
		return result, nil
	}

	target, ok := images.NearestTarget(size, r.targets)
	if !ok {
		return nil, &FileError{Name: file.Name, Stage: StageClassify, Err: errors.Wrapf(ErrNoTarget, "size %s", size)}
	}

	done = r.timings.StartOperation("fit")
	canvas, placement := images.FitWithPadding(img.Raster, target.Pixels, r.fill, r.filter)
	done()
	result.Target = target
	result.Resized = true
	result.Placement = placement

	r.logger.Debug("Fitted image",
		"file", file.Name,
		"source", size,
		"target", target.Pixels,
		"inner", placement.Inner,
		"offset", placement.Offset,
	)

	if err := r.save(result.OutputPath, canvas); err != nil {
		return nil, &FileError{Name: file.Name, Stage: StageWrite, Err: err}
	}
	return result, nil
}

// copyExact writes an image that already has an allowed size. The source bytes
// are kept when decoding left the pixels untouched, so lossy formats are not
// re-compressed.
func (r *Resizer) copyExact(path string, img *images.Image) error {
	if !img.Unaltered() {
		return r.save(path, img.Raster)
	}

	done := r.timings.StartOperation("write")
	err := images.WriteEncoded(path, img)
	done()
	if err != nil {
		return err
	}
	r.logger.Debug("Copied source bytes", "path", path, "bytes", len(img.Encoded))
	return nil
}

func (r *Resizer) save(path string, img image.Image) error {
	done := r.timings.StartOperation("write")
	err := images.Save(path, img, r.config.JPEGQuality)
	done()
	if err != nil {
		return err
	}
	if r.logger.GetLevel() <= log.DebugLevel {
		r.logger.Debug("Wrote image", "path", path, "checksum", images.ComputeChecksum(img))
	}
	return nil
}

func asFileError(name string, err error) *FileError {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe
	}
	return &FileError{Name: name, Err: err}
}
