package biometric

import (
	"math"

	"veriface.io/infrastructure/biometric/types"
)

// EmbeddingLength is the dimension of every embedding this pipeline produces.
// Vectors of any other length must never be compared against these.
const EmbeddingLength = 256

// Fixed sub-lengths of the five feature groups before reduction. They sum to
// 2*EmbeddingLength so the pair-reduction step lands exactly on the target.
const (
	lbpGroupLength       = 256
	hogGroupLength       = 160
	gaborGroupLength     = 16
	geometricGroupLength = 48
	intensityGroupLength = 32
)

// Group weights. Texture carries the most identity signal in this pipeline,
// so the texture groups are boosted and the coarse statistics damped.
const (
	lbpGroupWeight       = 1.5
	hogGroupWeight       = 1.0
	gaborGroupWeight     = 1.2
	geometricGroupWeight = 0.8
	intensityGroupWeight = 0.6
)

const hogCellGrid = 4
const hogOrientationBins = 9

var gaborOrientations = [4]float64{0, math.Pi / 4, math.Pi / 2, 3 * math.Pi / 4}
var gaborFrequencies = [4]float64{0.1, 0.2, 0.3, 0.4}

// ExtractEmbedding computes the fixed-length face descriptor for a region of
// the frame. The function is deterministic: identical pixels and region
// produce a bit-identical embedding.
func ExtractEmbedding(pixels *types.PixelBuffer, region types.Detection) (types.Embedding, error) {
	if pixels == nil || pixels.Width <= 0 || pixels.Height <= 0 {
		return nil, types.ErrInvalidDimensions
	}
	if pixels.Channels < 3 || len(pixels.Pixels) < pixels.Width*pixels.Height*pixels.Channels {
		return nil, types.ErrInvalidFormat
	}

	x := clampInt(region.X, 0, pixels.Width-1)
	y := clampInt(region.Y, 0, pixels.Height-1)
	w := clampInt(region.Width, 0, pixels.Width-x)
	h := clampInt(region.Height, 0, pixels.Height-y)
	if w < 3 || h < 3 {
		return nil, types.ErrInvalidDimensions
	}

	gray := regionLuminance(pixels, x, y, w, h)
	if isUniformZero(gray) {
		// A fully dark region carries no signal. Surface it as the zero
		// vector so it can never match an enrolled identity.
		return make(types.Embedding, EmbeddingLength), nil
	}

	features := make([]float64, 0, 2*EmbeddingLength)
	features = appendGroup(features, lbpHistogram(gray, w, h), lbpGroupLength, lbpGroupWeight)
	features = appendGroup(features, orientedGradientHistogram(gray, w, h), hogGroupLength, hogGroupWeight)
	features = appendGroup(features, textureFilterResponses(gray, w, h), gaborGroupLength, gaborGroupWeight)
	features = appendGroup(features, geometricFeatures(gray, w, h, x, y, pixels.Width, pixels.Height), geometricGroupLength, geometricGroupWeight)
	features = appendGroup(features, intensityHistogram(gray), intensityGroupLength, intensityGroupWeight)

	return normalizeL2(reduceDimensions(features)), nil
}

// regionLuminance extracts the luminance plane of one region using the same
// weighting as the integral image builder.
func regionLuminance(pixels *types.PixelBuffer, rx, ry, rw, rh int) []float64 {
	gray := make([]float64, rw*rh)
	for y := 0; y < rh; y++ {
		for x := 0; x < rw; x++ {
			offset := ((ry+y)*pixels.Width + (rx + x)) * pixels.Channels
			r := float64(pixels.Pixels[offset])
			g := float64(pixels.Pixels[offset+1])
			b := float64(pixels.Pixels[offset+2])
			gray[y*rw+x] = math.Round(0.299*r + 0.587*g + 0.114*b)
		}
	}
	return gray
}

// Fixed clockwise neighbor offsets starting top-left.
var lbpOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0},
}

// lbpHistogram builds a 256-bin local binary pattern histogram over the
// interior pixels, normalized by the interior count.
func lbpHistogram(gray []float64, w, h int) []float64 {
	histogram := make([]float64, 256)
	interior := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			center := gray[y*w+x]
			pattern := 0
			for bit, offset := range lbpOffsets {
				if gray[(y+offset[1])*w+(x+offset[0])] >= center {
					pattern |= 1 << uint(bit)
				}
			}
			histogram[pattern]++
			interior++
		}
	}
	if interior > 0 {
		for i := range histogram {
			histogram[i] /= float64(interior)
		}
	}
	return histogram
}

// orientedGradientHistogram partitions the region into a fixed cell grid and
// bins gradient magnitude by orientation in [0, 180) per cell, L1-normalized.
func orientedGradientHistogram(gray []float64, w, h int) []float64 {
	features := make([]float64, 0, hogCellGrid*hogCellGrid*hogOrientationBins)
	cellW := w / hogCellGrid
	cellH := h / hogCellGrid
	if cellW < 1 {
		cellW = 1
	}
	if cellH < 1 {
		cellH = 1
	}

	for cy := 0; cy < hogCellGrid; cy++ {
		for cx := 0; cx < hogCellGrid; cx++ {
			bins := make([]float64, hogOrientationBins)
			total := 0.0
			for y := cy * cellH; y < (cy+1)*cellH && y < h; y++ {
				for x := cx * cellW; x < (cx+1)*cellW && x < w; x++ {
					if x < 1 || y < 1 || x >= w-1 || y >= h-1 {
						continue
					}
					gx := gray[y*w+(x+1)] - gray[y*w+(x-1)]
					gy := gray[(y+1)*w+x] - gray[(y-1)*w+x]
					magnitude := math.Sqrt(gx*gx + gy*gy)
					orientation := math.Atan2(gy, gx) * 180 / math.Pi
					if orientation < 0 {
						orientation += 180
					}
					if orientation >= 180 {
						orientation -= 180
					}
					bin := int(orientation / (180 / float64(hogOrientationBins)))
					if bin >= hogOrientationBins {
						bin = hogOrientationBins - 1
					}
					bins[bin] += magnitude
					total += magnitude
				}
			}
			if total > 0 {
				for i := range bins {
					bins[i] /= total
				}
			}
			features = append(features, bins...)
		}
	}
	return features
}

// textureFilterResponses computes the mean Gabor-like response of the region
// for a fixed bank of orientations and frequencies.
func textureFilterResponses(gray []float64, w, h int) []float64 {
	responses := make([]float64, 0, len(gaborOrientations)*len(gaborFrequencies))
	cx := float64(w) / 2
	cy := float64(h) / 2
	sigma := math.Min(float64(w), float64(h)) / 4
	if sigma < 1 {
		sigma = 1
	}

	for _, theta := range gaborOrientations {
		cosT := math.Cos(theta)
		sinT := math.Sin(theta)
		for _, freq := range gaborFrequencies {
			sum := 0.0
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					dx := float64(x) - cx
					dy := float64(y) - cy
					rotated := dx*cosT + dy*sinT
					envelope := math.Exp(-(dx*dx + dy*dy) / (2 * sigma * sigma))
					sum += gray[y*w+x] / 255.0 * envelope * math.Cos(2*math.Pi*freq*rotated)
				}
			}
			responses = append(responses, sum/float64(w*h))
		}
	}
	return responses
}

// geometricFeatures captures the coarse shape and intensity statistics of the
// region: aspect ratio, placement within the source frame, quadrant means and
// contrasts, and the first four central moments of luminance.
func geometricFeatures(gray []float64, w, h, rx, ry, imgW, imgH int) []float64 {
	features := make([]float64, 0, 17)
	features = append(features, float64(w)/float64(h))
	features = append(features, float64(rx)/float64(imgW))
	features = append(features, float64(ry)/float64(imgH))
	features = append(features, float64(w)/float64(imgW))
	features = append(features, float64(h)/float64(imgH))

	halfW, halfH := w/2, h/2
	quadrants := [4][4]int{
		{0, 0, halfW, halfH},
		{halfW, 0, w - halfW, halfH},
		{0, halfH, halfW, h - halfH},
		{halfW, halfH, w - halfW, h - halfH},
	}
	quadrantContrasts := make([]float64, 0, 4)
	for _, q := range quadrants {
		mean, std := regionMoments(gray, w, q[0], q[1], q[2], q[3])
		features = append(features, mean/255.0)
		quadrantContrasts = append(quadrantContrasts, std/128.0)
	}
	features = append(features, quadrantContrasts...)

	mean, std := regionMoments(gray, w, 0, 0, w, h)
	skewness, kurtosis := 0.0, 0.0
	if std > 0 {
		n := float64(w * h)
		for _, v := range gray {
			d := (v - mean) / std
			skewness += d * d * d
			kurtosis += d * d * d * d
		}
		skewness /= n
		kurtosis = kurtosis/n - 3
	}
	features = append(features, mean/255.0, std/128.0, clampFloat(skewness, -4, 4)/4, clampFloat(kurtosis, -4, 4)/4)
	return features
}

func regionMoments(gray []float64, stride, x, y, w, h int) (mean, std float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	n := float64(w * h)
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			mean += gray[yy*stride+xx]
		}
	}
	mean /= n
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			d := gray[yy*stride+xx] - mean
			std += d * d
		}
	}
	return mean, math.Sqrt(std / n)
}

// intensityHistogram is a 32-bin normalized luminance histogram.
func intensityHistogram(gray []float64) []float64 {
	histogram := make([]float64, intensityGroupLength)
	for _, v := range gray {
		bin := int(v / 8)
		if bin >= intensityGroupLength {
			bin = intensityGroupLength - 1
		}
		histogram[bin]++
	}
	n := float64(len(gray))
	if n > 0 {
		for i := range histogram {
			histogram[i] /= n
		}
	}
	return histogram
}

// appendGroup truncates or zero-pads a group to its fixed sub-length and
// applies the group weight before concatenation.
func appendGroup(dst, group []float64, length int, weight float64) []float64 {
	for i := 0; i < length; i++ {
		v := 0.0
		if i < len(group) {
			v = group[i] * weight
		}
		dst = append(dst, v)
	}
	return dst
}

// reduceDimensions halves the vector by pairing adjacent features with fixed
// 0.8/0.2 weights. This is a fixed deterministic transform, not a fitted
// projection.
func reduceDimensions(features []float64) types.Embedding {
	reduced := make(types.Embedding, len(features)/2)
	for i := range reduced {
		reduced[i] = features[2*i]*0.8 + features[2*i+1]*0.2
	}
	return reduced
}

// normalizeL2 scales the vector to unit length. A degenerate zero-magnitude
// vector stays the zero vector instead of dividing by zero.
func normalizeL2(v types.Embedding) types.Embedding {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
	return v
}

func isUniformZero(gray []float64) bool {
	for _, v := range gray {
		if v != 0 {
			return false
		}
	}
	return true
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
