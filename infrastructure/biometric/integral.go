package biometric

import (
	"math"

	"veriface.io/infrastructure/biometric/types"
)

// IntegralImage holds the grayscale conversion of a frame together with its
// summed-area table. The table carries a one-indexed border of zeros so that
// Sum never branches on the image edge.
type IntegralImage struct {
	Width  int
	Height int
	Gray   []float64
	table  []float64
}

// BuildIntegralImage converts an interleaved pixel buffer to luminance and
// precomputes the summed-area table used for O(1) rectangle-sum queries.
func BuildIntegralImage(pixels *types.PixelBuffer) (*IntegralImage, error) {
	if pixels == nil || pixels.Width <= 0 || pixels.Height <= 0 {
		return nil, types.ErrInvalidDimensions
	}
	if pixels.Channels < 3 || len(pixels.Pixels) < pixels.Width*pixels.Height*pixels.Channels {
		return nil, types.ErrInvalidFormat
	}

	w, h := pixels.Width, pixels.Height
	ii := &IntegralImage{
		Width:  w,
		Height: h,
		Gray:   make([]float64, w*h),
		table:  make([]float64, (w+1)*(h+1)),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			offset := (y*w + x) * pixels.Channels
			r := float64(pixels.Pixels[offset])
			g := float64(pixels.Pixels[offset+1])
			b := float64(pixels.Pixels[offset+2])
			ii.Gray[y*w+x] = math.Round(0.299*r + 0.587*g + 0.114*b)
		}
	}

	// table[y][x] = sum of all gray values with row < y and col < x
	tw := w + 1
	for y := 1; y <= h; y++ {
		rowSum := 0.0
		for x := 1; x <= w; x++ {
			rowSum += ii.Gray[(y-1)*w+(x-1)]
			ii.table[y*tw+x] = ii.table[(y-1)*tw+x] + rowSum
		}
	}
	return ii, nil
}

// Sum returns the sum of gray values inside the rectangle. Coordinates
// outside the image are clamped.
func (ii *IntegralImage) Sum(x, y, w, h int) float64 {
	if w <= 0 || h <= 0 {
		return 0
	}
	x1 := clampInt(x, 0, ii.Width)
	y1 := clampInt(y, 0, ii.Height)
	x2 := clampInt(x+w, 0, ii.Width)
	y2 := clampInt(y+h, 0, ii.Height)
	tw := ii.Width + 1
	return ii.table[y2*tw+x2] - ii.table[y1*tw+x2] - ii.table[y2*tw+x1] + ii.table[y1*tw+x1]
}

// GrayAt returns the luminance at (x, y), zero when out of bounds.
func (ii *IntegralImage) GrayAt(x, y int) float64 {
	if x < 0 || y < 0 || x >= ii.Width || y >= ii.Height {
		return 0
	}
	return ii.Gray[y*ii.Width+x]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
