package biometric

import "math"

// FeatureRect is one weighted rectangle of a Haar-like feature, expressed in
// the cascade's base window coordinates.
type FeatureRect struct {
	X      int
	Y      int
	Width  int
	Height int
	Weight float64
}

// WeakClassifier is a single decision stump over one Haar-like feature.
type WeakClassifier struct {
	Rects          []FeatureRect
	SplitThreshold float64
	LeftValue      float64
	RightValue     float64
}

// Stage is one boosted group of weak classifiers with its rejection threshold.
type Stage struct {
	RejectionThreshold float64
	Classifiers        []WeakClassifier
}

// Cascade is a parsed classifier definition. It is loaded once at startup and
// shared read-only across all detection calls; Evaluate never mutates it.
type Cascade struct {
	WindowWidth  int
	WindowHeight int
	Stages       []Stage
}

// Evaluate runs the cascade against one candidate window at the given origin
// and scale. Stages are evaluated in order; a stage sum below its rejection
// threshold rejects immediately, which is what lets the scanner discard most
// non-face windows after the first stage or two.
func (c *Cascade) Evaluate(ii *IntegralImage, x, y int, scale float64) bool {
	for s := range c.Stages {
		stage := &c.Stages[s]
		stageSum := 0.0
		for w := range stage.Classifiers {
			weak := &stage.Classifiers[w]
			featureValue := 0.0
			for _, rect := range weak.Rects {
				rx := x + int(math.Floor(float64(rect.X)*scale))
				ry := y + int(math.Floor(float64(rect.Y)*scale))
				rw := int(math.Floor(float64(rect.Width) * scale))
				rh := int(math.Floor(float64(rect.Height) * scale))
				featureValue += rect.Weight * ii.Sum(rx, ry, rw, rh)
			}
			if featureValue < weak.SplitThreshold {
				stageSum += weak.LeftValue
			} else {
				stageSum += weak.RightValue
			}
		}
		if stageSum < stage.RejectionThreshold {
			return false
		}
	}
	return true
}
