package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	LogDir  string `toml:"log_dir"`
}

// Tools contains the external binaries the engine drives.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Encode contains encoder settings applied to rendered outputs.
type Encode struct {
	VideoCodec   string `toml:"video_codec"`
	Preset       string `toml:"preset"`
	CRF          int    `toml:"crf"`
	PixelFormat  string `toml:"pixel_format"`
	AudioCodec   string `toml:"audio_codec"`
	AudioBitrate string `toml:"audio_bitrate"`
	FastStart    bool   `toml:"fast_start"`
}

// Chroma contains default chroma-key extraction settings. Bounds use
// OpenCV-scaled HSV: hue 0-179, saturation and value 0-255.
type Chroma struct {
	Lower      []int  `toml:"lower"`
	Upper      []int  `toml:"upper"`
	KernelSize int    `toml:"kernel_size"`
	Mode       string `toml:"mode"`
}

// History contains configuration for the render history archive.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for keylight.
//
// Configuration sections by subsystem:
//   - Paths: work (scratch + history) and log directories
//   - Tools: ffmpeg/ffprobe executables
//   - Encode: codec, preset, CRF, and container settings for outputs
//   - Chroma: default key bounds, refinement kernel, and mode
//   - History: the SQLite render history archive
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Tools   Tools   `toml:"tools"`
	Encode  Encode  `toml:"encode"`
	Chroma  Chroma  `toml:"chroma"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/keylight/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/keylight/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("keylight.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the engine writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.History.Enabled {
		if dir := filepath.Dir(c.History.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create history directory %q: %w", dir, err)
			}
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for rendering.
func (c *Config) FFmpegBinary() string {
	return c.Tools.FFmpeg
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	return c.Tools.FFprobe
}

// VideoEncodeArgs returns the encoder arguments for the video stream of a
// rendered output.
func (c *Config) VideoEncodeArgs() []string {
	return []string{
		"-c:v", c.Encode.VideoCodec,
		"-preset", c.Encode.Preset,
		"-crf", strconv.Itoa(c.Encode.CRF),
		"-pix_fmt", c.Encode.PixelFormat,
	}
}

// AudioEncodeArgs returns the encoder arguments for the audio stream of a
// rendered output.
func (c *Config) AudioEncodeArgs() []string {
	return []string{
		"-c:a", c.Encode.AudioCodec,
		"-b:a", c.Encode.AudioBitrate,
	}
}

// MuxArgs returns container-level arguments applied to final outputs.
func (c *Config) MuxArgs() []string {
	if !c.Encode.FastStart {
		return nil
	}
	return []string{"-movflags", "+faststart"}
}

// Bounds returns the configured chroma bounds as channel arrays. Call only
// on a validated config.
func (c *Chroma) Bounds() (lower, upper [3]uint8) {
	for i := 0; i < 3; i++ {
		lower[i] = uint8(c.Lower[i])
		upper[i] = uint8(c.Upper[i])
	}
	return lower, upper
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
