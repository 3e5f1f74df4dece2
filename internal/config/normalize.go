package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeEncode()
	c.normalizeChroma()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	if value, ok := os.LookupEnv("KEYLIGHT_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.Tools.FFmpeg = value
	}
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	if value, ok := os.LookupEnv("KEYLIGHT_FFPROBE"); ok && strings.TrimSpace(value) != "" {
		c.Tools.FFprobe = value
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
}

func (c *Config) normalizeEncode() {
	c.Encode.VideoCodec = strings.TrimSpace(c.Encode.VideoCodec)
	if c.Encode.VideoCodec == "" {
		c.Encode.VideoCodec = defaultVideoCodec
	}
	c.Encode.Preset = strings.TrimSpace(c.Encode.Preset)
	if c.Encode.Preset == "" {
		c.Encode.Preset = defaultEncodePreset
	}
	if c.Encode.CRF <= 0 {
		c.Encode.CRF = defaultEncodeCRF
	}
	c.Encode.PixelFormat = strings.TrimSpace(c.Encode.PixelFormat)
	if c.Encode.PixelFormat == "" {
		c.Encode.PixelFormat = defaultPixelFormat
	}
	c.Encode.AudioCodec = strings.TrimSpace(c.Encode.AudioCodec)
	if c.Encode.AudioCodec == "" {
		c.Encode.AudioCodec = defaultAudioCodec
	}
	c.Encode.AudioBitrate = strings.TrimSpace(c.Encode.AudioBitrate)
	if c.Encode.AudioBitrate == "" {
		c.Encode.AudioBitrate = defaultAudioBitrate
	}
}

func (c *Config) normalizeChroma() {
	if len(c.Chroma.Lower) == 0 {
		c.Chroma.Lower = append([]int(nil), Default().Chroma.Lower...)
	}
	if len(c.Chroma.Upper) == 0 {
		c.Chroma.Upper = append([]int(nil), Default().Chroma.Upper...)
	}
	if c.Chroma.KernelSize == 0 {
		c.Chroma.KernelSize = defaultChromaKernelSize
	}
	c.Chroma.Mode = strings.ToLower(strings.TrimSpace(c.Chroma.Mode))
	if c.Chroma.Mode == "" {
		c.Chroma.Mode = defaultChromaMode
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.WorkDir, defaultHistoryFile)
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
