package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"keylight/internal/media/ffprobe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe <path>",
		Short: "Inspect a media file with ffprobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := resolvePath(args[0])
			if err != nil {
				return err
			}
			result, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), path)
			if err != nil {
				return err
			}
			if asJSON {
				_, err := cmd.OutOrStdout().Write(result.RawJSON())
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, buildProbeRows(path, result)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw ffprobe document")
	return cmd
}

func buildProbeRows(path string, result ffprobe.Result) [][]string {
	rows := [][]string{
		{"File", path},
		{"Container", result.Format.FormatName},
		{"Duration", formatElapsed(time.Duration(result.DurationSeconds() * float64(time.Second)))},
		{"Size", formatBytes(result.SizeBytes())},
		{"Streams", fmt.Sprintf("%d video, %d audio", result.VideoStreamCount(), result.AudioStreamCount())},
	}
	if video, ok := result.FirstVideoStream(); ok {
		rows = append(rows, []string{"Video", fmt.Sprintf("%s %dx%d", video.CodecName, video.Width, video.Height)})
		if fps := video.FrameRate(); fps > 0 {
			rows = append(rows, []string{"Frame rate", fmt.Sprintf("%g fps", fps)})
		}
		if video.PixFmt != "" {
			rows = append(rows, []string{"Pixel format", video.PixFmt})
		}
		if frames := video.FrameCount(); frames > 0 {
			rows = append(rows, []string{"Frames", strconv.FormatInt(frames, 10)})
		}
	}
	if audio, ok := result.FirstAudioStream(); ok {
		rows = append(rows, []string{"Audio", fmt.Sprintf("%s %s Hz, %d ch", audio.CodecName, audio.SampleRate, audio.Channels)})
	} else {
		rows = append(rows, []string{"Audio", "none"})
	}
	return rows
}

func formatBytes(n int64) string {
	if n <= 0 {
		return "-"
	}
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
