package media

import (
	"image"
	"os"

	"github.com/disintegration/imaging"

	// Still-image decoders for layer sources.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// LoadImage decodes a still image from disk with EXIF orientation applied
// and returns it as a Frame.
func LoadImage(path string) (*Frame, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	return FrameFromImage(img), nil
}

// ImageDimensions returns image geometry without decoding pixel data.
func ImageDimensions(path string) (width, height int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// Resize returns a new frame scaled to the exact target geometry using
// Lanczos resampling. Non-positive targets return the frame unchanged.
func (f *Frame) Resize(width, height int) *Frame {
	if width <= 0 || height <= 0 || (width == f.Width && height == f.Height) {
		return f
	}
	return FrameFromImage(imaging.Resize(f.NRGBA(), width, height, imaging.Lanczos))
}
