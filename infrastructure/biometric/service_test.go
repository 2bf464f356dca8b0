package biometric

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"testing"

	"veriface.io/infrastructure/biometric/types"
)

func rejectAllCascade() *Cascade {
	return &Cascade{
		WindowWidth:  20,
		WindowHeight: 20,
		Stages: []Stage{{
			RejectionThreshold: 100,
			Classifiers: []WeakClassifier{{
				Rects:          []FeatureRect{{0, 0, 10, 10, 1}},
				SplitThreshold: 0,
				LeftValue:      -1,
				RightValue:     1,
			}},
		}},
	}
}

// texturedFrame renders a deterministic synthetic face-like texture. frame
// shifts a stripe so that consecutive captures differ the way a short camera
// burst would.
func texturedFrame(identity, frame int) *types.PixelBuffer {
	const size = 64
	pixels := make([]uint8, size*size*3)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := uint8((x*7 + y*13 + identity*53) % 256)
			if (y+frame*3)%16 < 4 {
				v = uint8((int(v) + 90) % 256)
			}
			offset := (y*size + x) * 3
			pixels[offset] = v
			pixels[offset+1] = v
			pixels[offset+2] = v
		}
	}
	return &types.PixelBuffer{Width: size, Height: size, Channels: 3, Pixels: pixels}
}

func TestDecodeFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 31)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())

	pixels, err := DecodeFrame(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if pixels.Width != 8 || pixels.Height != 6 || pixels.Channels != 3 {
		t.Fatalf("decoded buffer = %dx%dx%d, want 8x6x3", pixels.Width, pixels.Height, pixels.Channels)
	}

	// Data-URI prefixes are stripped.
	if _, err := DecodeFrame("data:image/png;base64," + encoded); err != nil {
		t.Fatalf("data URI payload rejected: %v", err)
	}

	if _, err := DecodeFrame("%%%not-base64%%%"); !errors.Is(err, types.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat for bad base64, got %v", err)
	}
	garbage := base64.StdEncoding.EncodeToString([]byte("not an image"))
	if _, err := DecodeFrame(garbage); !errors.Is(err, types.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat for non-image payload, got %v", err)
	}
}

func TestLocateFaceStrategyProvenance(t *testing.T) {
	frame := texturedFrame(1, 0)

	svc := NewFaceAuthService(acceptAllCascade(), defaultMatchThreshold, defaultMatchMargin)
	outcome, err := svc.LocateFace(frame)
	if err != nil {
		t.Fatal(err)
	}
	if outcome == nil || outcome.Strategy != StrategyCascade || outcome.FallbackUsed {
		t.Fatalf("expected cascade strategy, got %+v", outcome)
	}

	svc = NewFaceAuthService(rejectAllCascade(), defaultMatchThreshold, defaultMatchMargin)
	outcome, err = svc.LocateFace(frame)
	if err != nil {
		t.Fatal(err)
	}
	if outcome == nil || outcome.Strategy != StrategyCenterCrop || !outcome.FallbackUsed {
		t.Fatalf("expected center-crop fallback, got %+v", outcome)
	}
	// 60% center crop of a 64px frame.
	if outcome.Region.Width != 38 || outcome.Region.X != 13 {
		t.Fatalf("unexpected fallback region %+v", outcome.Region)
	}

	svc.FallbackMode = false
	outcome, err = svc.LocateFace(frame)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != nil {
		t.Fatalf("expected no region with fallback disabled, got %+v", outcome)
	}
}

func TestEnrollFramesRejectsStaticBurst(t *testing.T) {
	svc := NewFaceAuthService(rejectAllCascade(), defaultMatchThreshold, defaultMatchMargin)
	svc.QualityCfg = QualityConfig{MinSamples: 3, MaxMeanPairwiseDistance: 1, MinVariance: 1e-9}

	same := texturedFrame(1, 0)
	result, err := svc.EnrollFrames([]*types.PixelBuffer{same, same, same})
	if err != nil {
		t.Fatal(err)
	}
	if result.Quality.IsValid {
		t.Fatal("identical frames passed the enrollment quality gate")
	}
	if result.Aggregated != nil {
		t.Fatal("aggregation ran on a rejected burst")
	}
}

func TestEnrollThenAuthenticate(t *testing.T) {
	svc := NewFaceAuthService(rejectAllCascade(), 0.5, 0)
	svc.QualityCfg = QualityConfig{MinSamples: 3, MaxMeanPairwiseDistance: 1, MinVariance: 0}

	burst := []*types.PixelBuffer{
		texturedFrame(1, 0),
		texturedFrame(1, 1),
		texturedFrame(1, 2),
	}
	result, err := svc.EnrollFrames(burst)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Quality.IsValid {
		t.Fatalf("burst rejected: %s", result.Quality.Reason)
	}
	if result.Strategy != StrategyCenterCrop {
		t.Fatalf("strategy = %q, want %q since the cascade rejects everything", result.Strategy, StrategyCenterCrop)
	}

	variants := append([]types.Embedding{result.Aggregated.Mean, result.Aggregated.Median}, result.Samples...)
	if err := svc.Index.Add("user-1", variants); err != nil {
		t.Fatal(err)
	}

	match, outcome, err := svc.AuthenticateFrame(texturedFrame(1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if outcome == nil {
		t.Fatal("no region located for the login frame")
	}
	if match == nil || match.IdentityID != "user-1" {
		t.Fatalf("expected user-1 match, got %+v", match)
	}
	if match.Distance > 1e-9 {
		t.Fatalf("distance = %v for a frame that is also a stored raw sample, want ~0", match.Distance)
	}

	stats := svc.GetStats()
	if stats.TotalRequests == 0 || stats.SuccessfulRequests == 0 {
		t.Fatalf("processing stats not updated: %+v", stats)
	}
}

func TestAuthenticateFrameNoFace(t *testing.T) {
	svc := NewFaceAuthService(rejectAllCascade(), defaultMatchThreshold, defaultMatchMargin)
	svc.FallbackMode = false
	if err := svc.Index.Rebuild(nil); err != nil {
		t.Fatal(err)
	}

	match, outcome, err := svc.AuthenticateFrame(texturedFrame(1, 0))
	if err != nil {
		t.Fatal(err)
	}
	if match != nil || outcome != nil {
		t.Fatalf("expected no face and no match, got %+v / %+v", match, outcome)
	}
}
