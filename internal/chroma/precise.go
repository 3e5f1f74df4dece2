package chroma

import "keylight/internal/media"

// PreciseName identifies the exact HSV-bound strategy.
const PreciseName = "precise"

// Precise keys frames with an exact inclusive HSV bound test. Pixels inside
// the bounds are the key (backdrop); the returned mask is the inverted
// "keep" view.
type Precise struct{}

// Name implements Keyer.
func (Precise) Name() string { return PreciseName }

// Key returns the keep mask for one frame: 0 where the pixel matched the
// color bounds, full weight everywhere else.
func (Precise) Key(frame *media.Frame, bounds media.ColorRange) *media.Mask {
	return KeepMask(frame, bounds)
}

// HitMask marks every pixel inside the bounds with full weight. Deterministic
// and side-effect free.
func HitMask(frame *media.Frame, bounds media.ColorRange) *media.Mask {
	mask := media.NewMask(frame.Width, frame.Height)
	pix := frame.Pix
	for i, j := 0, 0; j < len(mask.Pix); i, j = i+4, j+1 {
		h, s, v := media.RGBToHSV(pix[i], pix[i+1], pix[i+2])
		if bounds.Contains(h, s, v) {
			mask.Pix[j] = media.MaskMax
		}
	}
	return mask
}

// KeepMask is the bitwise complement of HitMask: backdrop pixels drop to
// zero weight, everything else keeps full weight.
func KeepMask(frame *media.Frame, bounds media.ColorRange) *media.Mask {
	mask := HitMask(frame, bounds)
	Invert(mask)
	return mask
}

// Invert flips a mask in place.
func Invert(mask *media.Mask) {
	for i, v := range mask.Pix {
		mask.Pix[i] = media.MaskMax - v
	}
}

var _ FrameKeyer = Precise{}
