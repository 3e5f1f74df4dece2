package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"keylight/internal/chroma"
	"keylight/internal/media"
	"keylight/internal/render"
	"keylight/internal/timeline"
)

// composeFlags collects the compose command's flag values. A plan file and
// the single-layer flags are mutually exclusive ways to describe the job.
type composeFlags struct {
	planPath   string
	base       string
	output     string
	layerPath  string
	kind       string
	start      float64
	end        float64
	scale      float64
	keepAspect bool
	offsetX    int
	offsetY    int
	opacity    float64
	key        string
	threshold  int
	tolerance  int
}

func (f composeFlags) request() (render.CompositeRequest, error) {
	var req render.CompositeRequest
	if strings.TrimSpace(f.planPath) != "" {
		if f.base != "" || f.output != "" || f.layerPath != "" {
			return req, errors.New("--plan cannot be combined with single-layer flags")
		}
		return loadPlan(f.planPath)
	}
	if strings.TrimSpace(f.layerPath) == "" {
		return req, errors.New("either --plan or --layer is required")
	}

	var err error
	if req.Base, err = resolvePath(f.base); err != nil {
		return req, fmt.Errorf("resolve --base: %w", err)
	}
	if req.Output, err = resolvePath(f.output); err != nil {
		return req, fmt.Errorf("resolve --output: %w", err)
	}
	spec := render.LayerSpec{
		Kind:       f.kind,
		Scale:      f.scale,
		KeepAspect: f.keepAspect,
		OffsetX:    f.offsetX,
		OffsetY:    f.offsetY,
		Opacity:    f.opacity,
		Window:     timeline.Window{Start: f.start, End: f.end},
	}
	if spec.Path, err = resolvePath(f.layerPath); err != nil {
		return req, fmt.Errorf("resolve --layer: %w", err)
	}
	if key := strings.TrimSpace(f.key); key != "" {
		color, err := media.ParseHexColor(key)
		if err != nil {
			return req, fmt.Errorf("parse --key: %w", err)
		}
		spec.Chroma = &chroma.ApproxSpec{Color: color, Threshold: f.threshold, Tolerance: f.tolerance}
	}
	req.Layers = []render.LayerSpec{spec}
	return req, nil
}

func newComposeCommand(ctx *commandContext) *cobra.Command {
	var f composeFlags

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose layered sources over a base video",
		Long: `Compose builds a single engine filter graph from a TOML plan or from
flags describing one layer, then re-encodes the base with every layer
applied in order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request()
			if err != nil {
				return err
			}
			return ctx.withRuntime(cmd, func(jobCtx context.Context, rt *render.Runtime) error {
				sup := rt.Supervisor()
				id, err := sup.StartComposite(jobCtx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Started compose job %s\n", shortJobID(id))
				return awaitJob(cmd, sup, id)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.planPath, "plan", "", "TOML plan describing the base and every layer")
	flags.StringVar(&f.base, "base", "", "Base video (single-layer mode)")
	flags.StringVarP(&f.output, "output", "o", "", "Output file (single-layer mode)")
	flags.StringVar(&f.layerPath, "layer", "", "Layer source path (single-layer mode)")
	flags.StringVar(&f.kind, "kind", string(media.StreamVideo), "Layer kind: video, image, audio")
	flags.Float64Var(&f.start, "start", 0, "Seconds into the base where the layer appears")
	flags.Float64Var(&f.end, "end", 0, "Seconds into the base where the layer stops (0 lets it run out)")
	flags.Float64Var(&f.scale, "scale", 1, "Layer size as a fraction of the base frame")
	flags.BoolVar(&f.keepAspect, "keep-aspect", false, "Preserve the layer's aspect ratio when scaling")
	flags.IntVar(&f.offsetX, "x", 0, "Horizontal offset from the base center in pixels")
	flags.IntVar(&f.offsetY, "y", 0, "Vertical offset from the base center in pixels")
	flags.Float64Var(&f.opacity, "opacity", 1, "Layer blend opacity within [0,1]")
	flags.StringVar(&f.key, "key", "", "Hex color to key out of the layer, e.g. #00FF00")
	flags.IntVar(&f.threshold, "threshold", defaultKeyThreshold, fmt.Sprintf("Key similarity threshold [0,%d]", chroma.ThresholdMax))
	flags.IntVar(&f.tolerance, "tolerance", defaultKeyTolerance, fmt.Sprintf("Key edge softness [0,%d]", chroma.ToleranceMax))

	return cmd
}
