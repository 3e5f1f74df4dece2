package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"keylight/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit [tools] if ffmpeg and ffprobe are not on your PATH.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configExists {
				fmt.Fprintln(out, "Config file does not exist; defaults are in effect")
			}

			rows := [][]string{
				{"Work directory", cfg.Paths.WorkDir},
				{"Log directory", cfg.Paths.LogDir},
				{"FFmpeg", cfg.Tools.FFmpeg},
				{"FFprobe", cfg.Tools.FFprobe},
				{"Video codec", fmt.Sprintf("%s (preset %s, crf %d)", cfg.Encode.VideoCodec, cfg.Encode.Preset, cfg.Encode.CRF)},
				{"Pixel format", cfg.Encode.PixelFormat},
				{"Audio codec", fmt.Sprintf("%s @ %s", cfg.Encode.AudioCodec, cfg.Encode.AudioBitrate)},
				{"Fast start", yesNo(cfg.Encode.FastStart)},
				{"Chroma lower", formatBound(cfg.Chroma.Lower)},
				{"Chroma upper", formatBound(cfg.Chroma.Upper)},
				{"Chroma kernel", strconv.Itoa(cfg.Chroma.KernelSize)},
				{"Chroma mode", cfg.Chroma.Mode},
				{"History", yesNo(cfg.History.Enabled)},
				{"History path", cfg.History.Path},
				{"Log format", cfg.Logging.Format},
				{"Log level", cfg.Logging.Level},
				{"Log retention", fmt.Sprintf("%d days", cfg.Logging.RetentionDays)},
			}
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows))
			return nil
		},
	}
}

func formatBound(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, ",")
}
