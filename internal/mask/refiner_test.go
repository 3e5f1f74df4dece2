package mask_test

import (
	"testing"

	"keylight/internal/mask"
	"keylight/internal/media"
)

func uniformMask(w, h int, value uint8) *media.Mask {
	m := media.NewMask(w, h)
	m.Fill(value)
	return m
}

func TestNewRefinerValidatesKernel(t *testing.T) {
	for _, kernel := range []int{0, -3, 2, 8} {
		if _, err := mask.NewRefiner(kernel, mask.ModeFast); err == nil {
			t.Fatalf("kernel %d should be rejected", kernel)
		}
	}
	for _, kernel := range []int{1, 3, 5, 9} {
		if _, err := mask.NewRefiner(kernel, mask.ModeQuality); err != nil {
			t.Fatalf("kernel %d should be accepted: %v", kernel, err)
		}
	}
	if _, err := mask.NewRefiner(3, mask.Mode("ultra")); err == nil {
		t.Fatal("unknown mode should be rejected")
	}
}

func TestParseMode(t *testing.T) {
	if mode, ok := mask.ParseMode(" Fast "); !ok || mode != mask.ModeFast {
		t.Fatalf("ParseMode fast = %q, %v", mode, ok)
	}
	if mode, ok := mask.ParseMode("QUALITY"); !ok || mode != mask.ModeQuality {
		t.Fatalf("ParseMode quality = %q, %v", mode, ok)
	}
	if _, ok := mask.ParseMode("best"); ok {
		t.Fatal("unknown mode parsed")
	}
}

func TestRefineKernelOneFastIsNoOp(t *testing.T) {
	refiner, err := mask.NewRefiner(1, mask.ModeFast)
	if err != nil {
		t.Fatalf("NewRefiner: %v", err)
	}
	m := uniformMask(4, 4, 0)
	m.Pix[5] = media.MaskMax
	out := refiner.Refine(m)
	if out != m {
		t.Fatal("kernel 1 fast mode should return the input mask unchanged")
	}
}

func TestRefineDoesNotMutateInput(t *testing.T) {
	refiner, err := mask.NewRefiner(3, mask.ModeQuality)
	if err != nil {
		t.Fatalf("NewRefiner: %v", err)
	}
	m := uniformMask(6, 6, 0)
	m.Pix[14] = media.MaskMax
	before := append([]uint8(nil), m.Pix...)
	refiner.Refine(m)
	for i := range before {
		if m.Pix[i] != before[i] {
			t.Fatalf("input mask mutated at %d", i)
		}
	}
}

func TestRefineUniformMaskStaysUniform(t *testing.T) {
	for _, mode := range []mask.Mode{mask.ModeFast, mask.ModeQuality} {
		refiner, err := mask.NewRefiner(5, mode)
		if err != nil {
			t.Fatalf("NewRefiner: %v", err)
		}
		out := refiner.Refine(uniformMask(9, 7, media.MaskMax))
		for i, v := range out.Pix {
			if v != media.MaskMax {
				t.Fatalf("mode %s: pixel %d drifted to %d", mode, i, v)
			}
		}
	}
}

func TestOpenRemovesSpeckle(t *testing.T) {
	m := uniformMask(7, 7, 0)
	m.Pix[3*7+3] = media.MaskMax
	out := mask.Open(m)
	for i, v := range out.Pix {
		if v != 0 {
			t.Fatalf("speckle survived open at %d: %d", i, v)
		}
	}
}

func TestCloseFillsHole(t *testing.T) {
	m := uniformMask(7, 7, media.MaskMax)
	m.Pix[3*7+3] = 0
	out := mask.Close(m)
	for i, v := range out.Pix {
		if v != media.MaskMax {
			t.Fatalf("hole survived close at %d: %d", i, v)
		}
	}
}

func TestBlurSoftensEdge(t *testing.T) {
	// Left half keep, right half key.
	m := media.NewMask(10, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			m.Pix[y*10+x] = media.MaskMax
		}
	}
	out := mask.Blur(m, 5)
	// The boundary column should now hold an intermediate weight.
	edge := out.Pix[1*10+5]
	if edge == 0 || edge == media.MaskMax {
		t.Fatalf("edge pixel not softened: %d", edge)
	}
	// Far away from the edge the mask is untouched.
	if out.Pix[1*10+0] != media.MaskMax {
		t.Fatalf("far keep pixel changed: %d", out.Pix[1*10+0])
	}
	if out.Pix[1*10+9] != 0 {
		t.Fatalf("far key pixel changed: %d", out.Pix[1*10+9])
	}
}

func TestQualityModeRunsMorphologyEvenWithKernelOne(t *testing.T) {
	refiner, err := mask.NewRefiner(1, mask.ModeQuality)
	if err != nil {
		t.Fatalf("NewRefiner: %v", err)
	}
	m := uniformMask(7, 7, 0)
	m.Pix[3*7+3] = media.MaskMax
	out := refiner.Refine(m)
	if out.Pix[3*7+3] != 0 {
		t.Fatal("quality mode with kernel 1 should still remove speckle")
	}
}
