package biometric

import (
	"encoding/json"
	"errors"
	"testing"

	"veriface.io/infrastructure/biometric/types"
)

func cascadeDoc(t *testing.T, stages int, classifiersPerStage int) []byte {
	t.Helper()
	doc := cascadeDocument{Width: 20, Height: 20}
	for s := 0; s < stages; s++ {
		stage := stageDocument{Threshold: 0}
		for c := 0; c < classifiersPerStage; c++ {
			stage.Classifiers = append(stage.Classifiers, classifierDocument{
				Rects:     [][5]float64{{0, 0, 10, 10, 1}},
				Threshold: 0,
				LeftVal:   -1,
				RightVal:  1,
			})
		}
		doc.Stages = append(doc.Stages, stage)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestLoadCascadeParsesDocument(t *testing.T) {
	cascade, err := LoadCascade(cascadeDoc(t, 3, 4), LoaderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if cascade.WindowWidth != 20 || cascade.WindowHeight != 20 {
		t.Fatalf("window = %dx%d, want 20x20", cascade.WindowWidth, cascade.WindowHeight)
	}
	if len(cascade.Stages) != 3 {
		t.Fatalf("stages = %d, want 3", len(cascade.Stages))
	}
	if len(cascade.Stages[0].Classifiers) != 4 {
		t.Fatalf("classifiers = %d, want 4", len(cascade.Stages[0].Classifiers))
	}
	weak := cascade.Stages[0].Classifiers[0]
	if weak.LeftValue != -1 || weak.RightValue != 1 {
		t.Fatalf("leaf values = %v/%v, want -1/1", weak.LeftValue, weak.RightValue)
	}
	if len(weak.Rects) != 1 || weak.Rects[0].Width != 10 {
		t.Fatalf("unexpected feature rects %+v", weak.Rects)
	}
}

// Oversized documents are truncated at the caps, not rejected - the trailing
// stages are deliberately left unparsed.
func TestLoadCascadeAppliesCaps(t *testing.T) {
	cascade, err := LoadCascade(cascadeDoc(t, 9, 14), DefaultLoaderOptions)
	if err != nil {
		t.Fatal(err)
	}
	if len(cascade.Stages) != DefaultLoaderOptions.MaxStages {
		t.Fatalf("stages = %d, want cap %d", len(cascade.Stages), DefaultLoaderOptions.MaxStages)
	}
	for _, stage := range cascade.Stages {
		if len(stage.Classifiers) != DefaultLoaderOptions.MaxClassifiersPerStage {
			t.Fatalf("classifiers = %d, want cap %d", len(stage.Classifiers), DefaultLoaderOptions.MaxClassifiersPerStage)
		}
	}
}

func TestLoadCascadeZeroCapsMeanUnlimited(t *testing.T) {
	cascade, err := LoadCascade(cascadeDoc(t, 9, 14), LoaderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(cascade.Stages) != 9 || len(cascade.Stages[0].Classifiers) != 14 {
		t.Fatalf("got %d stages / %d classifiers, want 9/14", len(cascade.Stages), len(cascade.Stages[0].Classifiers))
	}
}

func TestLoadCascadeRejectsMalformedInput(t *testing.T) {
	cases := [][]byte{
		[]byte("not json at all"),
		[]byte(`{"width":0,"height":20,"stages":[{"threshold":0,"classifiers":[]}]}`),
		[]byte(`{"width":20,"height":20,"stages":[]}`),
		[]byte(`{"width":20,"height":20,"stages":[{"threshold":0,"classifiers":[{"rects":[],"threshold":0,"leftVal":-1,"rightVal":1}]}]}`),
	}
	for i, raw := range cases {
		if _, err := LoadCascade(raw, LoaderOptions{}); !errors.Is(err, types.ErrInvalidFormat) {
			t.Fatalf("case %d: expected ErrInvalidFormat, got %v", i, err)
		}
	}
}

func TestCascadeEvaluateShortCircuits(t *testing.T) {
	// Stage 1 accepts everything, stage 2 rejects everything; a window must
	// fail overall, and an accept-all single stage must pass.
	rejectAll := &Cascade{
		WindowWidth:  20,
		WindowHeight: 20,
		Stages: []Stage{
			{RejectionThreshold: 0, Classifiers: []WeakClassifier{{
				Rects:          []FeatureRect{{0, 0, 10, 10, 1}},
				SplitThreshold: 0,
				LeftValue:      -1,
				RightValue:     1,
			}}},
			{RejectionThreshold: 100, Classifiers: []WeakClassifier{{
				Rects:          []FeatureRect{{0, 0, 10, 10, 1}},
				SplitThreshold: 0,
				LeftValue:      -1,
				RightValue:     1,
			}}},
		},
	}
	ii, err := BuildIntegralImage(uniformBuffer(40, 40, 200))
	if err != nil {
		t.Fatal(err)
	}
	if rejectAll.Evaluate(ii, 0, 0, 1.0) {
		t.Fatal("window passed a stage with an unreachable rejection threshold")
	}

	acceptAll := &Cascade{WindowWidth: 20, WindowHeight: 20, Stages: rejectAll.Stages[:1]}
	if !acceptAll.Evaluate(ii, 0, 0, 1.0) {
		t.Fatal("window failed an accept-all stage")
	}
}

func TestCascadeEvaluateScalesRectangles(t *testing.T) {
	// Over a uniform bright image the feature rectangle sums four times as
	// much at scale 2.0 as at scale 1.0. A split threshold between the two
	// values separates the scales.
	ii, err := BuildIntegralImage(uniformBuffer(60, 60, 255))
	if err != nil {
		t.Fatal(err)
	}

	// scale 1.0: 20*20*255/400 = 255; scale 2.0: 40*40*255/400 = 1020.
	cascade := &Cascade{
		WindowWidth:  20,
		WindowHeight: 20,
		Stages: []Stage{{
			RejectionThreshold: 0,
			Classifiers: []WeakClassifier{{
				Rects:          []FeatureRect{{0, 0, 20, 20, 1.0 / 400}},
				SplitThreshold: 500,
				LeftValue:      -1,
				RightValue:     1,
			}},
		}},
	}

	if cascade.Evaluate(ii, 0, 0, 1.0) {
		t.Fatal("window accepted at scale 1.0; feature value should be below the split")
	}
	if !cascade.Evaluate(ii, 0, 0, 2.0) {
		t.Fatal("window rejected at scale 2.0; rectangle scaling is off")
	}
}
