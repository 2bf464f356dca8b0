package biometric

import (
	"fmt"
	"sort"

	"veriface.io/infrastructure/biometric/types"
)

// QualityConfig bounds what an enrollment burst must look like before it is
// accepted as one identity.
type QualityConfig struct {
	MinSamples              int
	MaxMeanPairwiseDistance float64
	MinVariance             float64
}

// DefaultQualityConfig mirrors the production enrollment gates.
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		MinSamples:              3,
		MaxMeanPairwiseDistance: 0.35,
		MinVariance:             1e-6,
	}
}

// Aggregate combines a burst of embeddings for one identity into per-dimension
// mean and median representatives. All samples must share the same length.
func Aggregate(embeddings []types.Embedding) (*types.AggregatedEmbedding, error) {
	if len(embeddings) == 0 {
		return nil, types.ErrInsufficientSamples
	}
	dim := len(embeddings[0])
	for _, e := range embeddings {
		if len(e) != dim {
			return nil, fmt.Errorf("%w: %d vs %d", types.ErrDimensionMismatch, len(e), dim)
		}
	}

	mean := make(types.Embedding, dim)
	median := make(types.Embedding, dim)
	column := make([]float64, len(embeddings))
	for i := 0; i < dim; i++ {
		sum := 0.0
		for s, e := range embeddings {
			column[s] = e[i]
			sum += e[i]
		}
		mean[i] = sum / float64(len(embeddings))

		sort.Float64s(column)
		mid := len(column) / 2
		if len(column)%2 == 1 {
			median[i] = column[mid]
		} else {
			median[i] = (column[mid-1] + column[mid]) / 2
		}
	}
	return &types.AggregatedEmbedding{Mean: mean, Median: median}, nil
}

// ValidateQuality decides whether an enrollment burst is usable. Near-static
// bursts (variance below the floor) usually mean a replayed still; bursts
// whose samples disagree too much cannot represent a single identity.
func ValidateQuality(embeddings []types.Embedding, cfg QualityConfig) types.QualityReport {
	if len(embeddings) < cfg.MinSamples {
		return types.QualityReport{
			IsValid: false,
			Reason:  fmt.Sprintf("need at least %d samples, got %d", cfg.MinSamples, len(embeddings)),
		}
	}
	dim := len(embeddings[0])
	for _, e := range embeddings {
		if len(e) != dim {
			return types.QualityReport{IsValid: false, Reason: "samples have mismatched dimensions"}
		}
	}

	if meanVariance(embeddings) < cfg.MinVariance {
		return types.QualityReport{IsValid: false, Reason: "samples are near-identical, likely static input"}
	}

	pairs := 0
	totalDistance := 0.0
	for i := 0; i < len(embeddings); i++ {
		for j := i + 1; j < len(embeddings); j++ {
			totalDistance += CosineDistance(embeddings[i], embeddings[j])
			pairs++
		}
	}
	if pairs > 0 {
		meanDistance := totalDistance / float64(pairs)
		if meanDistance > cfg.MaxMeanPairwiseDistance {
			return types.QualityReport{
				IsValid: false,
				Reason:  fmt.Sprintf("samples too inconsistent (mean pairwise distance %.4f)", meanDistance),
			}
		}
	}
	return types.QualityReport{IsValid: true}
}

// meanVariance is the per-dimension sample variance averaged over dimensions.
func meanVariance(embeddings []types.Embedding) float64 {
	dim := len(embeddings[0])
	n := float64(len(embeddings))
	total := 0.0
	for i := 0; i < dim; i++ {
		mean := 0.0
		for _, e := range embeddings {
			mean += e[i]
		}
		mean /= n
		variance := 0.0
		for _, e := range embeddings {
			d := e[i] - mean
			variance += d * d
		}
		total += variance / n
	}
	return total / float64(dim)
}
