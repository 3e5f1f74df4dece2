package filtergraph

import (
	"fmt"

	"keylight/internal/chroma"
	"keylight/internal/media"
	"keylight/internal/timeline"
)

// Layer is one source participating in a composition. Z-order is the
// declaration order among visual layers. The stream must already be probed;
// Build never touches the filesystem.
type Layer struct {
	Stream     media.Stream
	Window     timeline.Window
	Scale      float64
	KeepAspect bool
	OffsetX    int
	OffsetY    int
	Opacity    float64
	Chroma     *chroma.ApproxSpec
}

// Visual reports whether the layer contributes pixels.
func (l Layer) Visual() bool {
	return l.Stream.Kind == media.StreamVideo || l.Stream.Kind == media.StreamImage
}

// Validate checks the layer before any graph is assembled.
func (l Layer) Validate() error {
	if err := l.Window.Validate(); err != nil {
		return err
	}
	switch l.Stream.Kind {
	case media.StreamVideo, media.StreamImage:
		if l.Stream.Width <= 0 || l.Stream.Height <= 0 {
			return fmt.Errorf("source %s has no usable dimensions", l.Stream.Path)
		}
		if l.Scale <= 0 {
			return fmt.Errorf("scale %g must be positive", l.Scale)
		}
		if l.Opacity < 0 || l.Opacity > 1 {
			return fmt.Errorf("opacity %g outside [0,1]", l.Opacity)
		}
		if l.Chroma != nil {
			return l.Chroma.Validate()
		}
		return nil
	case media.StreamAudio:
		return nil
	default:
		return fmt.Errorf("unknown layer kind %q", l.Stream.Kind)
	}
}

// naturalDuration is how long the layer runs without an explicit window end.
// Images have no duration of their own; they cover the base's remainder.
func (l Layer) naturalDuration(base media.Stream) float64 {
	if l.Stream.Kind == media.StreamImage {
		if d := base.Duration - l.Window.Start; d > 0 {
			return d
		}
		return 0
	}
	return l.Stream.Duration
}

// endOnCanvas is the canvas time at which the layer stops contributing.
func (l Layer) endOnCanvas(base media.Stream) float64 {
	return l.Window.EndOrNatural(l.naturalDuration(base))
}

// scaledSize derives the layer's target dimensions from the canvas geometry.
// Aspect-preserving layers scale against canvas width for landscape or square
// sources and against canvas height for portrait sources; non-preserving
// layers take both axes from the scale factor and may deform.
func (l Layer) scaledSize(base media.Stream) (int, int) {
	if l.KeepAspect {
		ratio := l.Stream.AspectRatio()
		if ratio >= 1 {
			w := int(float64(base.Width) * l.Scale)
			return w, int(float64(w) / ratio)
		}
		h := int(float64(base.Height) * l.Scale)
		return int(float64(h) * ratio), h
	}
	return int(float64(base.Width) * l.Scale), int(float64(base.Height) * l.Scale)
}

// position is the absolute top-left overlay position: the caller's offsets
// are relative to the canvas center.
func (l Layer) position(base media.Stream, width, height int) (int, int) {
	x := int(float64(base.Width)/2 + float64(l.OffsetX) - float64(width)/2)
	y := int(float64(base.Height)/2 + float64(l.OffsetY) - float64(height)/2)
	return x, y
}
