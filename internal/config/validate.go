package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateEncode(); err != nil {
		return err
	}
	if err := c.validateChroma(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateTools() error {
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		return errors.New("tools.ffmpeg must be set")
	}
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		return errors.New("tools.ffprobe must be set")
	}
	return nil
}

func (c *Config) validateEncode() error {
	if c.Encode.VideoCodec == "" {
		return errors.New("encode.video_codec must be set")
	}
	if c.Encode.Preset == "" {
		return errors.New("encode.preset must be set")
	}
	if c.Encode.CRF < 1 || c.Encode.CRF > 51 {
		return errors.New("encode.crf must be between 1 and 51")
	}
	if c.Encode.AudioCodec == "" {
		return errors.New("encode.audio_codec must be set")
	}
	if c.Encode.AudioBitrate == "" {
		return errors.New("encode.audio_bitrate must be set")
	}
	return nil
}

func (c *Config) validateChroma() error {
	if len(c.Chroma.Lower) != 3 {
		return errors.New("chroma.lower must have exactly three channels (hue, saturation, value)")
	}
	if len(c.Chroma.Upper) != 3 {
		return errors.New("chroma.upper must have exactly three channels (hue, saturation, value)")
	}
	limits := [3]int{179, 255, 255}
	names := [3]string{"hue", "saturation", "value"}
	for i := 0; i < 3; i++ {
		if c.Chroma.Lower[i] < 0 || c.Chroma.Lower[i] > limits[i] {
			return fmt.Errorf("chroma.lower %s must be between 0 and %d", names[i], limits[i])
		}
		if c.Chroma.Upper[i] < 0 || c.Chroma.Upper[i] > limits[i] {
			return fmt.Errorf("chroma.upper %s must be between 0 and %d", names[i], limits[i])
		}
		if c.Chroma.Lower[i] > c.Chroma.Upper[i] {
			return fmt.Errorf("chroma.lower %s must not exceed chroma.upper %s (hue wrap-around ranges are not supported)", names[i], names[i])
		}
	}
	if c.Chroma.KernelSize < 1 || c.Chroma.KernelSize%2 == 0 {
		return errors.New("chroma.kernel_size must be a positive odd integer")
	}
	switch c.Chroma.Mode {
	case "fast", "quality":
	default:
		return fmt.Errorf("chroma.mode must be \"fast\" or \"quality\", got %q", c.Chroma.Mode)
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return errors.New("history.path must be set when history.enabled is true")
	}
	return nil
}
