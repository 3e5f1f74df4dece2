package timeline

import (
	"fmt"
	"math"
)

// Resampler maps canvas frame indices onto source frame indices for one
// layer. It is constructed per layer and holds only immutable parameters.
type Resampler struct {
	sourceFPS    float64
	canvasFPS    float64
	sourceFrames int64
	startFrame   int64
	endFrame     int64
}

// NewResampler builds the mapping for a layer whose window starts at
// window.Start on the canvas. The window duration defaults to the source's
// natural duration (sourceFrames / sourceFPS) when no explicit end is set.
func NewResampler(window Window, sourceFPS, canvasFPS float64, sourceFrames int64) (*Resampler, error) {
	if sourceFPS <= 0 || canvasFPS <= 0 {
		return nil, fmt.Errorf("resampler: non-positive frame rate (source %.3f, canvas %.3f)", sourceFPS, canvasFPS)
	}
	if sourceFrames <= 0 {
		return nil, fmt.Errorf("resampler: source has no frames")
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	natural := float64(sourceFrames) / sourceFPS
	duration := window.Duration(natural)
	start := int64(math.Round(window.Start * canvasFPS))
	end := int64(math.Round((window.Start + duration) * canvasFPS))
	return &Resampler{
		sourceFPS:    sourceFPS,
		canvasFPS:    canvasFPS,
		sourceFrames: sourceFrames,
		startFrame:   start,
		endFrame:     end,
	}, nil
}

// StartFrame returns the first canvas frame on which the layer is visible.
func (r *Resampler) StartFrame() int64 { return r.startFrame }

// EndFrame returns the canvas frame (exclusive) after which the layer is no
// longer visible.
func (r *Resampler) EndFrame() int64 { return r.endFrame }

// Visible reports whether the layer contributes to the given canvas frame.
func (r *Resampler) Visible(canvasIndex int64) bool {
	return canvasIndex >= r.startFrame && canvasIndex < r.endFrame
}

// SourceIndex maps a canvas frame index to the nearest source frame index,
// clamped to the source's frame range: indices beyond the end freeze on the
// last frame, never wrap.
func (r *Resampler) SourceIndex(canvasIndex int64) int64 {
	offset := float64(canvasIndex-r.startFrame) * r.sourceFPS / r.canvasFPS
	index := int64(math.Round(offset))
	if index < 0 {
		return 0
	}
	if index >= r.sourceFrames {
		return r.sourceFrames - 1
	}
	return index
}
