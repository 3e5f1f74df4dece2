package chroma

import (
	"fmt"

	"keylight/internal/media"
)

// ApproxName identifies the similarity/blend strategy.
const ApproxName = "approx"

// Caller-facing parameter ranges for the approximate strategy.
const (
	ThresholdMax = 150
	ToleranceMax = 20
)

// ApproxSpec describes one approximate key: a single reference color plus
// the caller's threshold (similarity radius) and tolerance (edge softness).
type ApproxSpec struct {
	Color     media.RGB
	Threshold int
	Tolerance int
}

// Validate enforces the documented parameter ranges.
func (s ApproxSpec) Validate() error {
	if s.Threshold < 0 || s.Threshold > ThresholdMax {
		return fmt.Errorf("chroma threshold %d outside [0,%d]", s.Threshold, ThresholdMax)
	}
	if s.Tolerance < 0 || s.Tolerance > ToleranceMax {
		return fmt.Errorf("chroma tolerance %d outside [0,%d]", s.Tolerance, ToleranceMax)
	}
	return nil
}

// Similarity maps threshold [0,150] linearly onto the engine's similarity
// radius [0.01,0.31].
func (s ApproxSpec) Similarity() float64 {
	return 0.01 + float64(s.Threshold)/float64(ThresholdMax)*0.30
}

// Blend maps tolerance [0,20] linearly onto the engine's blend (edge
// softness) range [0,1].
func (s ApproxSpec) Blend() float64 {
	return float64(s.Tolerance) / float64(ToleranceMax)
}

// Approx is the engine-side keying strategy: one reference color with a
// similarity radius, keyed by the external engine rather than per pixel.
// Its numbers are not comparable to Precise's HSV bounds.
type Approx struct{}

// Name implements Keyer.
func (Approx) Name() string { return ApproxName }

// Expression renders the colorkey filter fragment for a validated spec.
func (Approx) Expression(spec ApproxSpec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf("colorkey=%s:%.3f:%.3f", spec.Color.Hex(), spec.Similarity(), spec.Blend()), nil
}

var _ GraphKeyer = Approx{}
