package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"keylight/internal/mask"
	"keylight/internal/render"
	"keylight/internal/timeline"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		foreground string
		background string
		output     string
		start      float64
		end        float64
		lower      string
		upper      string
		kernel     int
		quality    bool
		scale      float64
		opacity    float64
		offsetX    int
		offsetY    int
		audio      string
		logo       string
		logoScale  float64
		logoX      int
		logoY      int
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Key a foreground video onto a background",
		Long: `Render keys the foreground against an HSV color range, refines the
mask, and blends the result onto the background frame by frame. The
keyed foreground appears at --start seconds on the background timeline
and runs to --end (or its own natural end).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := render.KeyRequest{
				Window: timeline.Window{Start: start, End: end},
				Kernel: kernel,
				Placement: render.Placement{
					OffsetX: offsetX,
					OffsetY: offsetY,
					Scale:   scale,
					Opacity: opacity,
				},
				Audio: render.AudioMode(audio),
			}
			var err error
			if req.Foreground, err = resolvePath(foreground); err != nil {
				return fmt.Errorf("resolve --foreground: %w", err)
			}
			if req.Background, err = resolvePath(background); err != nil {
				return fmt.Errorf("resolve --background: %w", err)
			}
			if req.Output, err = resolvePath(output); err != nil {
				return fmt.Errorf("resolve --output: %w", err)
			}
			if req.Bounds, err = parseBoundsFlags(lower, upper); err != nil {
				return err
			}
			if quality {
				req.Mode = mask.ModeQuality
			}
			if logo != "" {
				path, err := resolvePath(logo)
				if err != nil {
					return fmt.Errorf("resolve --logo: %w", err)
				}
				req.Logo = &render.LogoSpec{
					Path:    path,
					Scale:   logoScale,
					OffsetX: logoX,
					OffsetY: logoY,
				}
			} else if cmd.Flags().Changed("logo-scale") || cmd.Flags().Changed("logo-x") || cmd.Flags().Changed("logo-y") {
				return fmt.Errorf("logo placement flags require --logo")
			}

			return ctx.withRuntime(cmd, func(jobCtx context.Context, rt *render.Runtime) error {
				sup := rt.Supervisor()
				id, err := sup.StartKey(jobCtx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Started render job %s\n", shortJobID(id))
				return awaitJob(cmd, sup, id)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&foreground, "foreground", "", "Foreground video to key (required)")
	flags.StringVar(&background, "background", "", "Background video (required)")
	flags.StringVarP(&output, "output", "o", "", "Output file (required)")
	flags.Float64Var(&start, "start", 0, "Seconds into the background where the foreground appears")
	flags.Float64Var(&end, "end", 0, "Seconds into the background where the foreground stops (0 lets it run out)")
	flags.StringVar(&lower, "lower", "", "Lower HSV key bound as h,s,v (default from config)")
	flags.StringVar(&upper, "upper", "", "Upper HSV key bound as h,s,v (default from config)")
	flags.IntVar(&kernel, "kernel", 0, "Mask refinement kernel size, odd (default from config)")
	flags.BoolVar(&quality, "quality", false, "Refine the mask with full morphology and blur")
	flags.Float64Var(&scale, "scale", 1, "Foreground scale factor")
	flags.Float64Var(&opacity, "opacity", 1, "Foreground blend opacity within [0,1]")
	flags.IntVar(&offsetX, "x", 0, "Horizontal offset from the canvas center in pixels")
	flags.IntVar(&offsetY, "y", 0, "Vertical offset from the canvas center in pixels")
	flags.StringVar(&audio, "audio", "", "Audio mode: background, foreground, both, synced, timed, none")
	flags.StringVar(&logo, "logo", "", "Still image stamped on every output frame")
	flags.Float64Var(&logoScale, "logo-scale", 0, "Logo scale relative to its own size (default 0.1)")
	flags.IntVar(&logoX, "logo-x", 0, "Logo horizontal offset from the canvas center in pixels")
	flags.IntVar(&logoY, "logo-y", 0, "Logo vertical offset from the canvas center in pixels")
	_ = cmd.MarkFlagRequired("foreground")
	_ = cmd.MarkFlagRequired("background")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
