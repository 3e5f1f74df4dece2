package media

import (
	"fmt"
	"image"
)

// Frame is a decoded video frame stored as tightly packed RGBA bytes,
// row-major, four bytes per pixel.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewFrame allocates a zeroed frame of the given geometry.
func NewFrame(width, height int) *Frame {
	if width <= 0 || height <= 0 {
		return &Frame{Width: 0, Height: 0, Pix: nil}
	}
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// FrameFromImage copies an arbitrary image into a Frame.
func FrameFromImage(src image.Image) *Frame {
	bounds := src.Bounds()
	frame := NewFrame(bounds.Dx(), bounds.Dy())
	if nrgba, ok := src.(*image.NRGBA); ok && nrgba.Stride == bounds.Dx()*4 {
		copy(frame.Pix, nrgba.Pix[nrgba.PixOffset(bounds.Min.X, bounds.Min.Y):])
		return frame
	}
	offset := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			frame.Pix[offset] = uint8(r >> 8)
			frame.Pix[offset+1] = uint8(g >> 8)
			frame.Pix[offset+2] = uint8(b >> 8)
			frame.Pix[offset+3] = uint8(a >> 8)
			offset += 4
		}
	}
	return frame
}

// NRGBA returns a zero-copy image view over the frame's pixels.
func (f *Frame) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    f.Pix,
		Stride: f.Width * 4,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// Clone returns an independent copy of the frame.
func (f *Frame) Clone() *Frame {
	clone := &Frame{Width: f.Width, Height: f.Height}
	clone.Pix = append([]uint8(nil), f.Pix...)
	return clone
}

// AlphaMask extracts the frame's alpha channel as a blend-weight mask.
func (f *Frame) AlphaMask() *Mask {
	mask := NewMask(f.Width, f.Height)
	for i := range mask.Pix {
		mask.Pix[i] = f.Pix[i*4+3]
	}
	return mask
}

// PixOffset returns the byte index of the pixel at (x, y).
func (f *Frame) PixOffset(x, y int) int {
	return (y*f.Width + x) * 4
}

// ByteSize returns the expected pixel buffer length for the geometry.
func (f *Frame) ByteSize() int {
	return f.Width * f.Height * 4
}

// ValidateGeometry reports an error when the pixel buffer does not match the
// declared dimensions.
func (f *Frame) ValidateGeometry() error {
	if len(f.Pix) != f.ByteSize() {
		return fmt.Errorf("frame geometry mismatch: %dx%d needs %d bytes, have %d", f.Width, f.Height, f.ByteSize(), len(f.Pix))
	}
	return nil
}
