package config

import (
	"bytes"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/screenfit/images"
)

// Defaults applied when no configuration file or flag overrides them.
const (
	DefaultInputDir  = "./captures"
	DefaultOutputDir = "./captures_resized"
	DefaultPadColor  = "#ffffff"
)

// ErrInvalid is returned by Validate and Load for unusable configuration.
var ErrInvalid = errors.New("invalid config")

// Config represents the application configuration
type Config struct {
	InputDir    string          `yaml:"input_dir" toml:"input_dir"`
	OutputDir   string          `yaml:"output_dir" toml:"output_dir"`
	Targets     []images.Pixels `yaml:"targets" toml:"targets"`
	PadColor    string          `yaml:"pad_color" toml:"pad_color"`
	Filter      string          `yaml:"filter" toml:"filter"`
	JPEGQuality int             `yaml:"jpeg_quality" toml:"jpeg_quality"`
	KeepGoing   bool            `yaml:"keep_going" toml:"keep_going"`
}

// Default returns the built-in configuration.
func Default() *Config {
	targets := make([]images.Pixels, 0, len(images.DefaultTargets))
	for _, res := range images.DefaultTargets {
		targets = append(targets, res.Pixels)
	}

	return &Config{
		InputDir:    DefaultInputDir,
		OutputDir:   DefaultOutputDir,
		Targets:     targets,
		PadColor:    DefaultPadColor,
		Filter:      string(images.LanczosFilter),
		JPEGQuality: images.DefaultJPEGQuality,
	}
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file on top of the
// defaults. Keys missing from the file keep their default value; unknown keys
// are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrapf(ErrInvalid, "failed to parse config: %v", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalid, "failed to parse config: %v", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.Wrapf(ErrInvalid, "unknown config keys: %v", undecoded)
		}
	default:
		return nil, errors.Wrapf(ErrInvalid, "unsupported config file type %q", filepath.Ext(path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration fields are set
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return errors.Wrap(ErrInvalid, "input_dir is required")
	}
	if c.OutputDir == "" {
		return errors.Wrap(ErrInvalid, "output_dir is required")
	}
	if samePath(c.InputDir, c.OutputDir) {
		return errors.Wrap(ErrInvalid, "output_dir must differ from input_dir")
	}
	if len(c.Targets) == 0 {
		return errors.Wrap(ErrInvalid, "at least one target size is required")
	}
	for i, t := range c.Targets {
		if !t.Valid() {
			return errors.Wrapf(ErrInvalid, "targets[%d]: invalid size %s", i, t)
		}
	}
	if _, err := ParseHexColor(c.PadColor); err != nil {
		return errors.Wrapf(ErrInvalid, "pad_color: %v", err)
	}
	if _, err := images.ParseFilter(c.Filter); err != nil {
		return errors.Wrapf(ErrInvalid, "filter: %v", err)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return errors.Wrapf(ErrInvalid, "jpeg_quality must be between 1 and 100, got %d", c.JPEGQuality)
	}
	return nil
}

// samePath reports whether a and b name the same directory once made
// absolute and, where they exist, resolved through symlinks.
func samePath(a, b string) bool {
	return resolvePath(a) == resolvePath(b)
}

func resolvePath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	return filepath.Clean(p)
}

// Resolutions returns the target allow-list in configured order. Sizes that
// match a built-in target carry its alias and device name.
func (c *Config) Resolutions() []images.Resolution {
	targets := make([]images.Resolution, 0, len(c.Targets))
	for _, size := range c.Targets {
		if res, ok := images.FindExact(size, images.DefaultTargets); ok {
			targets = append(targets, res)
			continue
		}
		targets = append(targets, images.Resolution{Pixels: size})
	}
	return targets
}

// Background returns the parsed padding colour.
func (c *Config) Background() (color.NRGBA, error) {
	return ParseHexColor(c.PadColor)
}

// ResampleFilter returns the parsed resampling filter.
func (c *Config) ResampleFilter() (images.ResampleFilter, error) {
	return images.ParseFilter(c.Filter)
}

// ParseHexColor parses "#rrggbb" or "#rgb" (the leading # is optional) into
// an opaque colour.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, errors.Errorf("invalid colour %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, errors.Errorf("invalid colour %q", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
