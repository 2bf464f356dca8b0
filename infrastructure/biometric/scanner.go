package biometric

import (
	"math"

	"veriface.io/infrastructure/biometric/types"
)

const (
	rawDetectionConfidence     = 0.7
	groupedDetectionConfidence = 0.9
	groupingIoUThreshold       = 0.3
)

// DetectionConfig controls the multi-scale window scan.
type DetectionConfig struct {
	// ScaleFactor is the multiplier applied to the window between scale passes.
	ScaleFactor float64
	// MinNeighbors is the smallest cluster of overlapping raw hits that
	// survives grouping.
	MinNeighbors int
	// MinSize and MaxSize bound the detected window in pixels. MaxSize 0
	// means unbounded.
	MinSize int
	MaxSize int
	// BaseStep is the slide step at scale 1.0; the effective step grows
	// proportionally with the scale.
	BaseStep int
}

// DefaultDetectionConfig mirrors the parameters used for login frames.
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		ScaleFactor:  1.2,
		MinNeighbors: 3,
		MinSize:      24,
		MaxSize:      0,
		BaseStep:     2,
	}
}

// DetectFaces slides scaled cascade windows over the integral image and
// groups overlapping raw hits into final detections. An empty slice means no
// face survived grouping; it is a valid outcome, not an error.
func DetectFaces(ii *IntegralImage, cascade *Cascade, cfg DetectionConfig) []types.Detection {
	if cfg.MinNeighbors < 1 {
		cfg.MinNeighbors = 1
	}
	return groupDetections(scanWindows(ii, cascade, cfg), cfg.MinNeighbors)
}

// scanWindows runs the raw multi-scale scan without grouping.
func scanWindows(ii *IntegralImage, cascade *Cascade, cfg DetectionConfig) []types.Detection {
	if cfg.ScaleFactor <= 1.0 {
		cfg.ScaleFactor = 1.1
	}
	if cfg.BaseStep <= 0 {
		cfg.BaseStep = 2
	}

	var raw []types.Detection
	for scale := 1.0; ; scale *= cfg.ScaleFactor {
		winW := int(math.Floor(float64(cascade.WindowWidth) * scale))
		winH := int(math.Floor(float64(cascade.WindowHeight) * scale))
		if winW > ii.Width || winH > ii.Height {
			break
		}
		if winW < cfg.MinSize || winH < cfg.MinSize {
			continue
		}
		if cfg.MaxSize > 0 && (winW > cfg.MaxSize || winH > cfg.MaxSize) {
			break
		}

		step := int(math.Max(1, math.Floor(float64(cfg.BaseStep)*scale)))
		for y := 0; y+winH <= ii.Height; y += step {
			for x := 0; x+winW <= ii.Width; x += step {
				if cascade.Evaluate(ii, x, y, scale) {
					raw = append(raw, types.Detection{
						X:          x,
						Y:          y,
						Width:      winW,
						Height:     winH,
						Confidence: rawDetectionConfidence,
					})
				}
			}
		}
	}
	return raw
}

// groupDetections clusters raw hits by IoU against an unconsumed seed and
// averages each surviving cluster into one detection. Keeping only clusters
// of MinNeighbors or more suppresses isolated false positives.
func groupDetections(raw []types.Detection, minNeighbors int) []types.Detection {
	grouped := []types.Detection{}
	consumed := make([]bool, len(raw))

	for i := range raw {
		if consumed[i] {
			continue
		}
		consumed[i] = true
		cluster := []types.Detection{raw[i]}
		for j := i + 1; j < len(raw); j++ {
			if consumed[j] {
				continue
			}
			if intersectionOverUnion(raw[i], raw[j]) > groupingIoUThreshold {
				consumed[j] = true
				cluster = append(cluster, raw[j])
			}
		}
		if len(cluster) < minNeighbors {
			continue
		}

		var sumX, sumY, sumW, sumH float64
		for _, d := range cluster {
			sumX += float64(d.X)
			sumY += float64(d.Y)
			sumW += float64(d.Width)
			sumH += float64(d.Height)
		}
		n := float64(len(cluster))
		grouped = append(grouped, types.Detection{
			X:          int(math.Round(sumX / n)),
			Y:          int(math.Round(sumY / n)),
			Width:      int(math.Round(sumW / n)),
			Height:     int(math.Round(sumH / n)),
			Confidence: groupedDetectionConfidence,
		})
	}
	return grouped
}

func intersectionOverUnion(a, b types.Detection) float64 {
	x1 := math.Max(float64(a.X), float64(b.X))
	y1 := math.Max(float64(a.Y), float64(b.Y))
	x2 := math.Min(float64(a.X+a.Width), float64(b.X+b.Width))
	y2 := math.Min(float64(a.Y+a.Height), float64(b.Y+b.Height))

	if x2 <= x1 || y2 <= y1 {
		return 0.0
	}

	intersection := (x2 - x1) * (y2 - y1)
	areaA := float64(a.Width * a.Height)
	areaB := float64(b.Width * b.Height)
	return intersection / (areaA + areaB - intersection)
}
