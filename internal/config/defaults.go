package config

const (
	defaultWorkDir          = "~/.local/share/keylight/work"
	defaultLogDir           = "~/.local/share/keylight/logs"
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultVideoCodec       = "libx264"
	defaultEncodePreset     = "ultrafast"
	defaultEncodeCRF        = 23
	defaultPixelFormat      = "yuv420p"
	defaultAudioCodec       = "aac"
	defaultAudioBitrate     = "192k"
	defaultChromaKernelSize = 5
	defaultChromaMode       = "fast"
	defaultHistoryFile      = "history.db"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 14
)

// Default returns a Config populated with repository defaults. The chroma
// bounds cover the neutral green backdrop most footage is shot against.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Encode: Encode{
			VideoCodec:   defaultVideoCodec,
			Preset:       defaultEncodePreset,
			CRF:          defaultEncodeCRF,
			PixelFormat:  defaultPixelFormat,
			AudioCodec:   defaultAudioCodec,
			AudioBitrate: defaultAudioBitrate,
			FastStart:    true,
		},
		Chroma: Chroma{
			Lower:      []int{40, 40, 40},
			Upper:      []int{80, 255, 255},
			KernelSize: defaultChromaKernelSize,
			Mode:       defaultChromaMode,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
