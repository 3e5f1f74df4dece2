package render

import (
	"fmt"
	"path/filepath"

	"keylight/internal/chroma"
	"keylight/internal/config"
	"keylight/internal/mask"
	"keylight/internal/media"
	"keylight/internal/services"
	"keylight/internal/timeline"
)

// Placement positions the keyed foreground on the canvas: a pixel offset
// from the canvas center, a scale factor applied to the foreground's probed
// size, and the blend opacity.
type Placement struct {
	OffsetX int
	OffsetY int
	Scale   float64
	Opacity float64
}

// DefaultPlacement centers the foreground at its probed size, fully opaque.
func DefaultPlacement() Placement {
	return Placement{Scale: 1, Opacity: 1}
}

// Validate checks the placement before any stream is opened.
func (p Placement) Validate() error {
	if p.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %g", p.Scale)
	}
	if p.Opacity < 0 || p.Opacity > 1 {
		return fmt.Errorf("opacity must be within [0,1], got %g", p.Opacity)
	}
	return nil
}

// LogoSpec requests a still-image watermark stamped onto every output
// frame, above the keyed foreground. Scale is relative to the image's own
// probed size; offsets are pixels from the canvas center. The image's alpha
// channel is the blend mask.
type LogoSpec struct {
	Path    string
	Scale   float64
	OffsetX int
	OffsetY int
}

// defaultLogoScale shrinks a typical full-resolution logo to a corner mark.
const defaultLogoScale = 0.1

// KeyRequest describes one two-stream chroma-key render: the foreground is
// keyed against Bounds, refined, resampled onto the background's timeline
// inside Window, and blended at Placement. Zero values for Bounds, Kernel,
// Mode and Placement fall back to the configured chroma defaults. Logo is
// optional.
type KeyRequest struct {
	Foreground string
	Background string
	Output     string

	Window    timeline.Window
	Bounds    media.ColorRange
	Kernel    int
	Mode      mask.Mode
	Placement Placement
	Logo      *LogoSpec
	Audio     AudioMode
	Sink      Sink
}

func (r *KeyRequest) normalize(cfg *config.Config) error {
	const stage = "render"
	paths := []struct {
		name string
		path string
	}{
		{"foreground", r.Foreground},
		{"background", r.Background},
		{"output", r.Output},
	}
	for _, p := range paths {
		if p.path == "" {
			return services.Wrap(services.ErrValidation, stage, "request", p.name+" path is required", nil)
		}
		if !filepath.IsAbs(p.path) {
			return services.Wrap(services.ErrValidation, stage, "request", p.name+" path must be absolute: "+p.path, nil)
		}
	}
	if err := r.Window.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, stage, "request", "time window", err)
	}
	if r.Placement == (Placement{}) {
		r.Placement = DefaultPlacement()
	}
	if err := r.Placement.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, stage, "request", "placement", err)
	}
	if r.Bounds == (media.ColorRange{}) {
		lower, upper := cfg.Chroma.Bounds()
		r.Bounds = media.ColorRange{Lower: lower, Upper: upper}
	}
	if err := r.Bounds.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, stage, "request", "chroma bounds", err)
	}
	if r.Kernel == 0 {
		r.Kernel = cfg.Chroma.KernelSize
	}
	if r.Mode == "" {
		mode, ok := mask.ParseMode(cfg.Chroma.Mode)
		if !ok {
			mode = mask.ModeFast
		}
		r.Mode = mode
	}
	if _, err := mask.NewRefiner(r.Kernel, r.Mode); err != nil {
		return services.Wrap(services.ErrValidation, stage, "request", "mask refiner", err)
	}
	if r.Logo != nil {
		if r.Logo.Path == "" {
			return services.Wrap(services.ErrValidation, stage, "request", "logo path is required", nil)
		}
		if !filepath.IsAbs(r.Logo.Path) {
			return services.Wrap(services.ErrValidation, stage, "request", "logo path must be absolute: "+r.Logo.Path, nil)
		}
		if r.Logo.Scale == 0 {
			r.Logo.Scale = defaultLogoScale
		}
		if r.Logo.Scale < 0 {
			return services.Wrap(services.ErrValidation, stage, "request", fmt.Sprintf("logo scale must be positive, got %g", r.Logo.Scale), nil)
		}
	}
	if r.Audio == "" {
		r.Audio = AudioBackground
	}
	if _, ok := ParseAudioMode(string(r.Audio)); !ok {
		return services.Wrap(services.ErrValidation, stage, "request", "unknown audio mode "+string(r.Audio), nil)
	}
	return nil
}

// LayerSpec is one requested layer before probing. Kind must name a known
// stream kind; audio layers ignore the visual fields. Zero scale and
// opacity mean "unset" and resolve to 1.
type LayerSpec struct {
	Path       string
	Kind       string
	Scale      float64
	KeepAspect bool
	OffsetX    int
	OffsetY    int
	Opacity    float64
	Window     timeline.Window
	Chroma     *chroma.ApproxSpec
}

// CompositeRequest describes one N-layer composition over a base stream.
// Layer order fixes the z order among visual layers. An empty layer list is
// valid and re-encodes the base unchanged.
type CompositeRequest struct {
	Base   string
	Output string
	Layers []LayerSpec
	Sink   Sink
}

func (r *CompositeRequest) normalize() error {
	const stage = "compose"
	if r.Base == "" {
		return services.Wrap(services.ErrValidation, stage, "request", "base path is required", nil)
	}
	if !filepath.IsAbs(r.Base) {
		return services.Wrap(services.ErrValidation, stage, "request", "base path must be absolute: "+r.Base, nil)
	}
	if r.Output == "" {
		return services.Wrap(services.ErrValidation, stage, "request", "output path is required", nil)
	}
	if !filepath.IsAbs(r.Output) {
		return services.Wrap(services.ErrValidation, stage, "request", "output path must be absolute: "+r.Output, nil)
	}
	for i := range r.Layers {
		layer := &r.Layers[i]
		if layer.Path == "" {
			return services.Wrap(services.ErrValidation, stage, "request", fmt.Sprintf("layer %d: path is required", i+1), nil)
		}
		if !filepath.IsAbs(layer.Path) {
			return services.Wrap(services.ErrValidation, stage, "request", fmt.Sprintf("layer %d: path must be absolute: %s", i+1, layer.Path), nil)
		}
		kind, ok := media.ParseStreamKind(layer.Kind)
		if !ok {
			return services.Wrap(services.ErrValidation, stage, "request", fmt.Sprintf("layer %d: unknown kind %q", i+1, layer.Kind), nil)
		}
		layer.Kind = string(kind)
		if layer.Scale == 0 {
			layer.Scale = 1
		}
		if layer.Opacity == 0 {
			layer.Opacity = 1
		}
	}
	return nil
}
