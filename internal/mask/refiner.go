package mask

import (
	"fmt"
	"strings"

	"keylight/internal/media"
)

// Mode selects the refinement cost/quality tradeoff.
type Mode string

const (
	// ModeFast blurs the mask edges and nothing else.
	ModeFast Mode = "fast"
	// ModeQuality removes speckle with a morphological open and close
	// before blurring.
	ModeQuality Mode = "quality"
)

// ParseMode converts a string into a known Mode.
func ParseMode(value string) (Mode, bool) {
	normalized := Mode(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case ModeFast, ModeQuality:
		return normalized, true
	}
	return "", false
}

// Refiner smooths keep masks under a fixed configuration.
type Refiner struct {
	kernel int
	mode   Mode
}

// NewRefiner validates the kernel once, at configuration time. The kernel
// must be positive and odd; kernel 1 in fast mode makes refinement a no-op.
func NewRefiner(kernel int, mode Mode) (*Refiner, error) {
	if kernel <= 0 {
		return nil, fmt.Errorf("mask kernel %d must be positive", kernel)
	}
	if kernel%2 == 0 {
		return nil, fmt.Errorf("mask kernel %d must be odd", kernel)
	}
	if mode != ModeFast && mode != ModeQuality {
		return nil, fmt.Errorf("unknown mask mode %q", mode)
	}
	return &Refiner{kernel: kernel, mode: mode}, nil
}

// Kernel returns the configured blur kernel size.
func (r *Refiner) Kernel() int { return r.kernel }

// Mode returns the configured mode.
func (r *Refiner) Mode() Mode { return r.mode }

// Refine applies the configured pipeline. The input mask is never mutated;
// when the configuration makes refinement a no-op the input is returned
// unchanged.
func (r *Refiner) Refine(m *media.Mask) *media.Mask {
	out := m
	if r.mode == ModeQuality {
		out = Close(Open(out))
	}
	if r.kernel > 1 {
		out = Blur(out, r.kernel)
	}
	return out
}

// Open runs a 3x3 morphological erosion followed by dilation, removing
// isolated foreground speckle.
func Open(m *media.Mask) *media.Mask {
	return dilate3(erode3(m))
}

// Close runs a 3x3 morphological dilation followed by erosion, filling
// isolated holes.
func Close(m *media.Mask) *media.Mask {
	return erode3(dilate3(m))
}

func erode3(m *media.Mask) *media.Mask {
	return morph3(m, func(best, v uint8) uint8 {
		if v < best {
			return v
		}
		return best
	}, media.MaskMax)
}

func dilate3(m *media.Mask) *media.Mask {
	return morph3(m, func(best, v uint8) uint8 {
		if v > best {
			return v
		}
		return best
	}, 0)
}

// morph3 applies a 3x3 neighborhood reduction. Out-of-bounds neighbors are
// skipped, matching the identity-border convention of the reference
// morphology.
func morph3(m *media.Mask, pick func(best, v uint8) uint8, seed uint8) *media.Mask {
	out := media.NewMask(m.Width, m.Height)
	w, h := m.Width, m.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			best := seed
			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				row := ny * w
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w {
						continue
					}
					best = pick(best, m.Pix[row+nx])
				}
			}
			out.Pix[y*w+x] = best
		}
	}
	return out
}

// Blur applies a separable box blur with the given odd window. Mask edges use
// the truncated window so uniform masks stay uniform.
func Blur(m *media.Mask, kernel int) *media.Mask {
	if kernel <= 1 {
		return m
	}
	radius := kernel / 2
	w, h := m.Width, m.Height
	tmp := media.NewMask(w, h)
	out := media.NewMask(w, h)

	// Horizontal pass.
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			sum, count := 0, 0
			for dx := -radius; dx <= radius; dx++ {
				nx := x + dx
				if nx < 0 || nx >= w {
					continue
				}
				sum += int(m.Pix[row+nx])
				count++
			}
			tmp.Pix[row+x] = uint8((sum + count/2) / count)
		}
	}

	// Vertical pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum, count := 0, 0
			for dy := -radius; dy <= radius; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				sum += int(tmp.Pix[ny*w+x])
				count++
			}
			out.Pix[y*w+x] = uint8((sum + count/2) / count)
		}
	}
	return out
}
