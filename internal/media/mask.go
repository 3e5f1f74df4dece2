package media

import (
	"image"

	"github.com/disintegration/imaging"
)

// MaskMax is the weight of a fully "keep" mask pixel.
const MaskMax = 255

// Mask is a single-channel buffer whose intensity encodes blend weight:
// MaskMax keeps the layer pixel, 0 keeps the canvas pixel, intermediate
// values blend.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask allocates a zeroed mask of the given geometry.
func NewMask(width, height int) *Mask {
	if width <= 0 || height <= 0 {
		return &Mask{Width: 0, Height: 0, Pix: nil}
	}
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// Gray returns a zero-copy image view over the mask's pixels.
func (m *Mask) Gray() *image.Gray {
	return &image.Gray{
		Pix:    m.Pix,
		Stride: m.Width,
		Rect:   image.Rect(0, 0, m.Width, m.Height),
	}
}

// Clone returns an independent copy of the mask.
func (m *Mask) Clone() *Mask {
	clone := &Mask{Width: m.Width, Height: m.Height}
	clone.Pix = append([]uint8(nil), m.Pix...)
	return clone
}

// Resize returns a new mask interpolated to the exact target geometry.
// Linear filtering keeps weights inside [0, MaskMax]; sharper kernels
// overshoot at keyed edges. Non-positive targets return the mask unchanged.
func (m *Mask) Resize(width, height int) *Mask {
	if width <= 0 || height <= 0 || (width == m.Width && height == m.Height) {
		return m
	}
	scaled := imaging.Resize(m.Gray(), width, height, imaging.Linear)
	out := NewMask(width, height)
	for i := range out.Pix {
		out.Pix[i] = scaled.Pix[i*4]
	}
	return out
}

// Fill sets every mask pixel to the given weight.
func (m *Mask) Fill(value uint8) {
	for i := range m.Pix {
		m.Pix[i] = value
	}
}
