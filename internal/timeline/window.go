package timeline

import "fmt"

// Window bounds a layer's visibility on the canvas timeline, in seconds.
// End 0 means "no explicit end": the layer runs for its natural duration.
type Window struct {
	Start float64
	End   float64
}

// Validate rejects negative starts and ends before starts.
func (w Window) Validate() error {
	if w.Start < 0 {
		return fmt.Errorf("window start %.3f must not be negative", w.Start)
	}
	if w.HasEnd() && w.End < w.Start {
		return fmt.Errorf("window end %.3f before start %.3f", w.End, w.Start)
	}
	return nil
}

// HasEnd reports whether an explicit end is set.
func (w Window) HasEnd() bool { return w.End > 0 }

// Duration returns the explicit window length, or the fallback (typically
// the source's natural duration) when no end is set.
func (w Window) Duration(fallback float64) float64 {
	if w.HasEnd() {
		return w.End - w.Start
	}
	return fallback
}

// EndOrNatural returns the canvas time at which the layer stops contributing:
// the explicit end when set, otherwise start plus the natural duration.
func (w Window) EndOrNatural(natural float64) float64 {
	if w.HasEnd() {
		return w.End
	}
	return w.Start + natural
}
