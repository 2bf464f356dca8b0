package biometric

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"veriface.io/infrastructure/biometric/types"
)

func randomBuffer(rng *rand.Rand, w, h int) *types.PixelBuffer {
	pixels := make([]uint8, w*h*3)
	for i := range pixels {
		pixels[i] = uint8(rng.Intn(256))
	}
	return &types.PixelBuffer{Width: w, Height: h, Channels: 3, Pixels: pixels}
}

func uniformBuffer(w, h int, value uint8) *types.PixelBuffer {
	pixels := make([]uint8, w*h*3)
	for i := range pixels {
		pixels[i] = value
	}
	return &types.PixelBuffer{Width: w, Height: h, Channels: 3, Pixels: pixels}
}

func TestBuildIntegralImageRejectsZeroDimensions(t *testing.T) {
	_, err := BuildIntegralImage(&types.PixelBuffer{Width: 0, Height: 10, Channels: 3})
	if !errors.Is(err, types.ErrInvalidDimensions) {
		t.Fatalf("expected ErrInvalidDimensions, got %v", err)
	}
	_, err = BuildIntegralImage(&types.PixelBuffer{Width: 10, Height: 0, Channels: 3})
	if !errors.Is(err, types.ErrInvalidDimensions) {
		t.Fatalf("expected ErrInvalidDimensions, got %v", err)
	}
	_, err = BuildIntegralImage(nil)
	if !errors.Is(err, types.ErrInvalidDimensions) {
		t.Fatalf("expected ErrInvalidDimensions for nil buffer, got %v", err)
	}
}

func TestBuildIntegralImageRejectsShortBuffer(t *testing.T) {
	_, err := BuildIntegralImage(&types.PixelBuffer{Width: 4, Height: 4, Channels: 3, Pixels: make([]uint8, 10)})
	if !errors.Is(err, types.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestIntegralImageLuminanceWeights(t *testing.T) {
	buffer := &types.PixelBuffer{Width: 1, Height: 1, Channels: 3, Pixels: []uint8{100, 50, 200}}
	ii, err := BuildIntegralImage(buffer)
	if err != nil {
		t.Fatal(err)
	}
	want := math.Round(0.299*100 + 0.587*50 + 0.114*200)
	if got := ii.GrayAt(0, 0); got != want {
		t.Fatalf("luminance = %v, want %v", got, want)
	}
	if got := ii.Sum(0, 0, 1, 1); got != want {
		t.Fatalf("Sum over single pixel = %v, want %v", got, want)
	}
}

// Property: for random rectangles within bounds, Sum equals the brute-force
// pixel summation.
func TestIntegralImageSumMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ii, err := BuildIntegralImage(randomBuffer(rng, 37, 23))
	if err != nil {
		t.Fatal(err)
	}

	for trial := 0; trial < 500; trial++ {
		x := rng.Intn(ii.Width)
		y := rng.Intn(ii.Height)
		w := 1 + rng.Intn(ii.Width-x)
		h := 1 + rng.Intn(ii.Height-y)

		brute := 0.0
		for yy := y; yy < y+h; yy++ {
			for xx := x; xx < x+w; xx++ {
				brute += ii.GrayAt(xx, yy)
			}
		}
		if got := ii.Sum(x, y, w, h); math.Abs(got-brute) > 1e-6 {
			t.Fatalf("Sum(%d,%d,%d,%d) = %v, brute force = %v", x, y, w, h, got, brute)
		}
	}
}

func TestIntegralImageSumClampsOutOfBounds(t *testing.T) {
	ii, err := BuildIntegralImage(uniformBuffer(10, 10, 255))
	if err != nil {
		t.Fatal(err)
	}
	full := ii.Sum(0, 0, 10, 10)
	if got := ii.Sum(-5, -5, 20, 20); got != full {
		t.Fatalf("clamped oversized sum = %v, want full image sum %v", got, full)
	}
	if got := ii.Sum(3, 3, 0, 4); got != 0 {
		t.Fatalf("empty rectangle sum = %v, want 0", got)
	}
}
