package biometric

import (
	"encoding/json"
	"fmt"

	"veriface.io/infrastructure/biometric/types"
	"veriface.io/infrastructure/logger"
)

// LoaderOptions bound how much of a classifier document is materialised.
// Cascade files routinely ship 20+ stages; evaluating all of them makes a
// software scan an order of magnitude slower for a marginal accuracy gain, so
// loading stops at the caps and trailing structure is simply not parsed.
// Zero means unlimited.
type LoaderOptions struct {
	MaxStages              int
	MaxClassifiersPerStage int
}

// DefaultLoaderOptions are the production caps.
var DefaultLoaderOptions = LoaderOptions{
	MaxStages:              5,
	MaxClassifiersPerStage: 10,
}

type cascadeDocument struct {
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Stages []stageDocument `json:"stages"`
}

type stageDocument struct {
	Threshold   float64              `json:"threshold"`
	Classifiers []classifierDocument `json:"classifiers"`
}

type classifierDocument struct {
	Rects     [][5]float64 `json:"rects"`
	Threshold float64      `json:"threshold"`
	LeftVal   float64      `json:"leftVal"`
	RightVal  float64      `json:"rightVal"`
}

// LoadCascade parses a JSON classifier document into an immutable Cascade.
// Malformed documents fail with ErrInvalidFormat; structurally valid but
// oversized documents are truncated at the configured caps.
func LoadCascade(raw []byte, opts LoaderOptions) (*Cascade, error) {
	var doc cascadeDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidFormat, err.Error())
	}
	if doc.Width <= 0 || doc.Height <= 0 {
		return nil, fmt.Errorf("%w: cascade window is %dx%d", types.ErrInvalidFormat, doc.Width, doc.Height)
	}
	if len(doc.Stages) == 0 {
		return nil, fmt.Errorf("%w: cascade has no stages", types.ErrInvalidFormat)
	}

	stageLimit := len(doc.Stages)
	if opts.MaxStages > 0 && opts.MaxStages < stageLimit {
		stageLimit = opts.MaxStages
	}

	cascade := &Cascade{
		WindowWidth:  doc.Width,
		WindowHeight: doc.Height,
		Stages:       make([]Stage, 0, stageLimit),
	}

	for s := 0; s < stageLimit; s++ {
		stageDoc := doc.Stages[s]
		classifierLimit := len(stageDoc.Classifiers)
		if opts.MaxClassifiersPerStage > 0 && opts.MaxClassifiersPerStage < classifierLimit {
			classifierLimit = opts.MaxClassifiersPerStage
		}
		stage := Stage{
			RejectionThreshold: stageDoc.Threshold,
			Classifiers:        make([]WeakClassifier, 0, classifierLimit),
		}
		for c := 0; c < classifierLimit; c++ {
			classifierDoc := stageDoc.Classifiers[c]
			if len(classifierDoc.Rects) == 0 {
				return nil, fmt.Errorf("%w: stage %d classifier %d has no feature rectangles", types.ErrInvalidFormat, s, c)
			}
			weak := WeakClassifier{
				Rects:          make([]FeatureRect, 0, len(classifierDoc.Rects)),
				SplitThreshold: classifierDoc.Threshold,
				LeftValue:      classifierDoc.LeftVal,
				RightValue:     classifierDoc.RightVal,
			}
			for _, r := range classifierDoc.Rects {
				weak.Rects = append(weak.Rects, FeatureRect{
					X:      int(r[0]),
					Y:      int(r[1]),
					Width:  int(r[2]),
					Height: int(r[3]),
					Weight: r[4],
				})
			}
			stage.Classifiers = append(stage.Classifiers, weak)
		}
		cascade.Stages = append(cascade.Stages, stage)
	}

	if stageLimit < len(doc.Stages) {
		logger.Info("cascade loaded with stage cap applied", logger.LoggerOptions{
			Key: "cascade",
			Data: map[string]any{
				"stages_in_document": len(doc.Stages),
				"stages_loaded":      stageLimit,
			},
		})
	}
	return cascade, nil
}
