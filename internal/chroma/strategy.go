package chroma

import (
	"strings"

	"keylight/internal/media"
)

// Keyer is the capability root shared by all keying strategies. Concrete
// strategies additionally implement FrameKeyer or GraphKeyer.
type Keyer interface {
	Name() string
}

// FrameKeyer keys decoded frames into keep masks.
type FrameKeyer interface {
	Keyer
	Key(frame *media.Frame, bounds media.ColorRange) *media.Mask
}

// GraphKeyer emits a filter expression for an external engine graph.
type GraphKeyer interface {
	Keyer
	Expression(spec ApproxSpec) (string, error)
}

var strategies = map[string]Keyer{
	PreciseName: Precise{},
	ApproxName:  Approx{},
}

// ForName resolves a registered strategy by name.
func ForName(name string) (Keyer, bool) {
	keyer, ok := strategies[strings.ToLower(strings.TrimSpace(name))]
	return keyer, ok
}

// Names returns the registered strategy names.
func Names() []string {
	return []string{PreciseName, ApproxName}
}
