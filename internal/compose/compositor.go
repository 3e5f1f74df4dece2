package compose

import (
	"fmt"
	"image"
	"math"

	"keylight/internal/media"
)

// Blend composites layer onto canvas in place. The layer's top-left corner
// derives from a center placement: offset (dx, dy) from the canvas center.
// Mask intensity scaled by opacity gives the per-pixel blend weight:
//
//	out = layer*a + canvas*(1-a), a = mask/255 * opacity
//
// The layer rectangle is intersected with the canvas; an empty intersection
// leaves the canvas untouched and returns nil.
func Blend(canvas, layer *media.Frame, mask *media.Mask, dx, dy int, opacity float64) error {
	if layer.Width != mask.Width || layer.Height != mask.Height {
		return fmt.Errorf("blend: layer %dx%d and mask %dx%d differ", layer.Width, layer.Height, mask.Width, mask.Height)
	}
	if opacity < 0 {
		opacity = 0
	} else if opacity > 1 {
		opacity = 1
	}

	x0 := (canvas.Width-layer.Width)/2 + dx
	y0 := (canvas.Height-layer.Height)/2 + dy
	target := image.Rect(x0, y0, x0+layer.Width, y0+layer.Height)
	visible := target.Intersect(image.Rect(0, 0, canvas.Width, canvas.Height))
	if visible.Empty() {
		return nil
	}

	for cy := visible.Min.Y; cy < visible.Max.Y; cy++ {
		ly := cy - y0
		canvasRow := canvas.PixOffset(visible.Min.X, cy)
		layerRow := layer.PixOffset(visible.Min.X-x0, ly)
		maskRow := ly*mask.Width + (visible.Min.X - x0)
		for cx := visible.Min.X; cx < visible.Max.X; cx++ {
			a := float64(mask.Pix[maskRow]) / media.MaskMax * opacity
			if a > 0 {
				inv := 1 - a
				canvas.Pix[canvasRow] = uint8(math.Round(float64(layer.Pix[layerRow])*a + float64(canvas.Pix[canvasRow])*inv))
				canvas.Pix[canvasRow+1] = uint8(math.Round(float64(layer.Pix[layerRow+1])*a + float64(canvas.Pix[canvasRow+1])*inv))
				canvas.Pix[canvasRow+2] = uint8(math.Round(float64(layer.Pix[layerRow+2])*a + float64(canvas.Pix[canvasRow+2])*inv))
			}
			canvasRow += 4
			layerRow += 4
			maskRow++
		}
	}
	return nil
}
