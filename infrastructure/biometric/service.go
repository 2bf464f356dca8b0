package biometric

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"
	"time"

	"veriface.io/infrastructure/biometric/types"
	"veriface.io/infrastructure/logger"
)

// Detection strategies, in the order they are attempted. The outcome carries
// which one produced the region so callers and tests can assert on provenance
// instead of guessing from logs.
const (
	StrategyCascade    = "cascade"
	StrategyCenterCrop = "center-crop"
)

// centerCropRatio is the share of the frame used when the cascade finds
// nothing and fallback is enabled.
const centerCropRatio = 0.6

// DetectionOutcome is the face region chosen for a frame plus the provenance
// of the strategy that produced it.
type DetectionOutcome struct {
	Region       types.Detection `json:"region"`
	Strategy     string          `json:"strategy"`
	FallbackUsed bool            `json:"fallbackUsed"`
}

// EnrollmentResult is the outcome of processing an enrollment burst.
// Strategy records how the faces were located; if any frame needed the
// center-crop fallback the whole burst is tagged with it.
type EnrollmentResult struct {
	Aggregated *types.AggregatedEmbedding
	Samples    []types.Embedding
	Quality    types.QualityReport
	Strategy   string
}

// ProcessingStats tracks pipeline call statistics.
type ProcessingStats struct {
	TotalRequests      int64   `json:"total_requests"`
	SuccessfulRequests int64   `json:"successful_requests"`
	AverageTime        float64 `json:"average_time_ms"`
	TotalTime          int64   `json:"total_time_ms"`
}

// FaceAuthService owns the immutable cascade and the match index. The cascade
// is never mutated after load, so every detection call can run in parallel;
// the index does its own locking.
type FaceAuthService struct {
	cascade      *Cascade
	Index        *MatchIndex
	DetectionCfg DetectionConfig
	QualityCfg   QualityConfig
	Threshold    float64
	Margin       float64
	FallbackMode bool

	statsMutex      sync.Mutex
	processingStats ProcessingStats
}

// NewFaceAuthService wires a service around a loaded cascade.
func NewFaceAuthService(cascade *Cascade, threshold, margin float64) *FaceAuthService {
	return &FaceAuthService{
		cascade:      cascade,
		Index:        NewMatchIndex(),
		DetectionCfg: DefaultDetectionConfig(),
		QualityCfg:   DefaultQualityConfig(),
		Threshold:    threshold,
		Margin:       margin,
		FallbackMode: true,
	}
}

// DecodeFrame turns a base64 (optionally data-URI prefixed) image payload
// into an interleaved RGB pixel buffer.
func DecodeFrame(payload string) (*types.PixelBuffer, error) {
	if idx := strings.Index(payload, ","); idx != -1 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, types.ErrInvalidFormat
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, types.ErrInvalidFormat
	}
	return pixelBufferFromImage(img)
}

func pixelBufferFromImage(img image.Image) (*types.PixelBuffer, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, types.ErrInvalidDimensions
	}
	buffer := &types.PixelBuffer{
		Width:    w,
		Height:   h,
		Channels: 3,
		Pixels:   make([]uint8, w*h*3),
	}
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			buffer.Pixels[i] = uint8(r >> 8)
			buffer.Pixels[i+1] = uint8(g >> 8)
			buffer.Pixels[i+2] = uint8(b >> 8)
			i += 3
		}
	}
	return buffer, nil
}

// LocateFace finds the face region of a frame. Strategies run in order:
// cascade detection first, then the center-crop fallback when enabled. A nil
// outcome means no usable region, which is a valid result rather than an
// error.
func (fas *FaceAuthService) LocateFace(pixels *types.PixelBuffer) (*DetectionOutcome, error) {
	ii, err := BuildIntegralImage(pixels)
	if err != nil {
		return nil, err
	}

	detections := DetectFaces(ii, fas.cascade, fas.DetectionCfg)
	if len(detections) > 0 {
		return &DetectionOutcome{
			Region:   largestDetection(detections),
			Strategy: StrategyCascade,
		}, nil
	}

	if !fas.FallbackMode {
		return nil, nil
	}
	cropW := int(float64(pixels.Width) * centerCropRatio)
	cropH := int(float64(pixels.Height) * centerCropRatio)
	if cropW < 3 || cropH < 3 {
		return nil, nil
	}
	return &DetectionOutcome{
		Region: types.Detection{
			X:          (pixels.Width - cropW) / 2,
			Y:          (pixels.Height - cropH) / 2,
			Width:      cropW,
			Height:     cropH,
			Confidence: rawDetectionConfidence,
		},
		Strategy:     StrategyCenterCrop,
		FallbackUsed: true,
	}, nil
}

// EnrollFrames runs the full enrollment pipeline over a burst of frames:
// locate, extract, quality-gate, aggregate. Frames with no usable region are
// skipped; the quality gate decides whether what is left is enough.
func (fas *FaceAuthService) EnrollFrames(frames []*types.PixelBuffer) (*EnrollmentResult, error) {
	startTime := time.Now()

	embeddings := make([]types.Embedding, 0, len(frames))
	strategy := StrategyCascade
	for _, frame := range frames {
		outcome, err := fas.LocateFace(frame)
		if err != nil {
			return nil, err
		}
		if outcome == nil {
			continue
		}
		if outcome.FallbackUsed {
			strategy = StrategyCenterCrop
		}
		embedding, err := ExtractEmbedding(frame, outcome.Region)
		if err != nil {
			return nil, err
		}
		if isDegenerate(embedding) {
			continue
		}
		embeddings = append(embeddings, embedding)
	}

	quality := ValidateQuality(embeddings, fas.QualityCfg)
	if !quality.IsValid {
		fas.updateStats(time.Since(startTime).Milliseconds(), false)
		return &EnrollmentResult{Quality: quality}, nil
	}

	aggregated, err := Aggregate(embeddings)
	if err != nil {
		fas.updateStats(time.Since(startTime).Milliseconds(), false)
		return nil, err
	}

	samples := embeddings
	if len(samples) > MaxRawSamples {
		samples = samples[:MaxRawSamples]
	}
	fas.updateStats(time.Since(startTime).Milliseconds(), true)
	return &EnrollmentResult{Aggregated: aggregated, Samples: samples, Quality: quality, Strategy: strategy}, nil
}

// AuthenticateFrame matches a single login frame against the index. Both the
// match result and the detection outcome may be nil: no face found, or no
// identity close enough.
func (fas *FaceAuthService) AuthenticateFrame(pixels *types.PixelBuffer) (*types.MatchResult, *DetectionOutcome, error) {
	startTime := time.Now()

	outcome, err := fas.LocateFace(pixels)
	if err != nil {
		return nil, nil, err
	}
	if outcome == nil {
		fas.updateStats(time.Since(startTime).Milliseconds(), false)
		return nil, nil, nil
	}

	embedding, err := ExtractEmbedding(pixels, outcome.Region)
	if err != nil {
		return nil, outcome, err
	}

	result, err := fas.Index.Search(embedding, fas.Threshold, fas.Margin)
	if err != nil {
		return nil, outcome, err
	}

	fas.updateStats(time.Since(startTime).Milliseconds(), result != nil)
	if result != nil {
		logger.Info("face authentication match", logger.LoggerOptions{
			Key: "match",
			Data: map[string]any{
				"distance":        result.Distance,
				"second_distance": result.SecondDistance,
				"confidence":      result.Confidence,
				"strategy":        outcome.Strategy,
			},
		})
	}
	return result, outcome, nil
}

// GetStats returns a copy of the processing statistics.
func (fas *FaceAuthService) GetStats() ProcessingStats {
	fas.statsMutex.Lock()
	defer fas.statsMutex.Unlock()
	return fas.processingStats
}

func (fas *FaceAuthService) updateStats(elapsedMs int64, success bool) {
	fas.statsMutex.Lock()
	defer fas.statsMutex.Unlock()
	fas.processingStats.TotalRequests++
	if success {
		fas.processingStats.SuccessfulRequests++
	}
	fas.processingStats.TotalTime += elapsedMs
	fas.processingStats.AverageTime = float64(fas.processingStats.TotalTime) / float64(fas.processingStats.TotalRequests)
}

func largestDetection(detections []types.Detection) types.Detection {
	largest := detections[0]
	maxArea := largest.Width * largest.Height
	for _, d := range detections[1:] {
		if area := d.Width * d.Height; area > maxArea {
			largest = d
			maxArea = area
		}
	}
	return largest
}
