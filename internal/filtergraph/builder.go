package filtergraph

import (
	"fmt"
	"strconv"

	"keylight/internal/chroma"
	"keylight/internal/media"
)

// Input is one roster entry for the external engine: its option list, then
// the source path. Roster order fixes the stream indices the graph refers to.
type Input struct {
	Path    string
	Options []string
}

// Plan is the complete executable description of one composition: input
// roster, transform graph, stream selections for the muxer, and the target
// duration the canvas was extended to. VideoMap and AudioMap are ready-made
// map arguments: bracketed graph labels or direct stream specifiers.
type Plan struct {
	Inputs         []Input
	Graph          Graph
	VideoMap       string
	AudioMap       string
	TargetDuration float64
	Base           media.Stream

	videoNodes int
}

// VideoOnly returns a copy of the plan with the audio chain stripped: no
// audio map and none of the delay or mix nodes. It backs the drop-audio
// fallback after the engine rejects a graph.
func (p *Plan) VideoOnly() *Plan {
	clone := *p
	clone.Graph = p.Graph.Prefix(p.videoNodes)
	clone.AudioMap = ""
	return &clone
}

// Builder assembles composition plans. The keyer supplies the engine-side
// chroma expression; only strategies with graph capability fit here.
type Builder struct {
	Keyer chroma.GraphKeyer
}

// NewBuilder returns a builder using the approximate chroma strategy.
func NewBuilder() *Builder {
	return &Builder{Keyer: chroma.Approx{}}
}

// Build validates the base and every layer, then assembles the plan. Any
// invalid layer rejects the whole plan before a single node is emitted.
//
// Per visual layer, in declaration order: timestamps are shifted by the
// window start (the engine's decoder handles timing, so no black frames
// appear before the layer starts), the layer is scaled, optionally keyed and
// faded, then overlaid onto the running base. The overlay result becomes the
// base for the next layer. An explicit window end hides the layer through a
// time predicate on the overlay; the start needs no predicate because the
// timestamp shift already covers it.
func (b *Builder) Build(base media.Stream, layers []Layer) (*Plan, error) {
	if base.Width <= 0 || base.Height <= 0 {
		return nil, fmt.Errorf("base %s has no usable dimensions", base.Path)
	}
	if base.FPS <= 0 {
		return nil, fmt.Errorf("base %s has no usable frame rate", base.Path)
	}
	for i := range layers {
		if err := layers[i].Validate(); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i+1, err)
		}
	}
	keyer := b.Keyer
	if keyer == nil {
		keyer = chroma.Approx{}
	}

	var visual, audio []Layer
	for _, l := range layers {
		if l.Visual() {
			visual = append(visual, l)
		} else {
			audio = append(audio, l)
		}
	}

	// The canvas must outlast every layer's window.
	target := base.Duration
	for _, l := range layers {
		if end := l.endOnCanvas(base); end > target {
			target = end
		}
	}

	plan := &Plan{Base: base, TargetDuration: target}
	plan.Inputs = append(plan.Inputs, Input{Path: base.Path})
	for _, l := range visual {
		in := Input{Path: l.Stream.Path}
		if l.Stream.Kind == media.StreamImage {
			// A looped still with an explicit frame rate decodes far
			// faster than the loop filter.
			in.Options = []string{
				"-loop", "1",
				"-framerate", formatNumber(base.FPS),
				"-t", formatNumber(target),
			}
		}
		plan.Inputs = append(plan.Inputs, in)
	}
	for _, l := range audio {
		plan.Inputs = append(plan.Inputs, Input{Path: l.Stream.Path})
	}

	g := &plan.Graph
	current := "0:v"
	if target > base.Duration {
		g.Add("tpad=stop_mode=clone:stop_duration="+formatNumber(target-base.Duration),
			[]string{"0:v"}, []string{"base"})
		current = "base"
	}

	for i, l := range visual {
		cur := fmt.Sprintf("%d:v", i+1)
		step := func(filter, label string) {
			g.Add(filter, []string{cur}, []string{label})
			cur = label
		}

		if l.Window.Start > 0 {
			step("setpts=PTS+"+formatNumber(l.Window.Start)+"/TB", fmt.Sprintf("l%dpts", i))
		} else {
			step("setpts=PTS-STARTPTS", fmt.Sprintf("l%dpts", i))
		}

		width, height := l.scaledSize(base)
		scale := fmt.Sprintf("scale=%d:%d", width, height)
		if l.KeepAspect {
			scale += ":force_original_aspect_ratio=decrease"
		}
		step(scale, fmt.Sprintf("l%dscl", i))

		if l.Chroma != nil {
			expr, err := keyer.Expression(*l.Chroma)
			if err != nil {
				return nil, fmt.Errorf("layer %d: %w", i+1, err)
			}
			step(expr, fmt.Sprintf("l%dkey", i))
		}

		if l.Opacity < 1 {
			step("format=yuva420p", fmt.Sprintf("l%dfmt", i))
			step("colorchannelmixer=aa="+formatNumber(l.Opacity), fmt.Sprintf("l%dalp", i))
		}

		x, y := l.position(base, width, height)
		overlay := fmt.Sprintf("overlay=%d:%d", x, y)
		if l.Window.HasEnd() {
			overlay += fmt.Sprintf(":enable='lt(t,%s)'", formatNumber(l.Window.End))
		}
		out := fmt.Sprintf("ov%d", i)
		g.Add(overlay, []string{current, cur}, []string{out})
		current = out
	}
	plan.VideoMap = mapRef(current)
	plan.videoNodes = g.Len()
	plan.AudioMap = PlanAudio(base, layers).emit(g)
	return plan, nil
}

// mapRef turns a buffer name into a map argument: graph labels are
// bracketed, roster streams pass through unchanged.
func mapRef(label string) string {
	if label == "0:v" {
		return label
	}
	return "[" + label + "]"
}

// formatNumber renders a float the way the engine expects: no exponent, no
// trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
