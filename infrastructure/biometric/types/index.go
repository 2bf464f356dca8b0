package types

import "errors"

// Typed failures surfaced by the biometric pipeline. "no face detected" and
// "no match" are not failures and are never represented by these errors -
// callers receive a nil result for those outcomes instead.
var (
	// ErrInvalidFormat means a cascade document or pixel buffer could not be parsed.
	ErrInvalidFormat = errors.New("biometric: invalid format")
	// ErrInvalidDimensions means an image or region with zero/negative size was supplied.
	ErrInvalidDimensions = errors.New("biometric: invalid dimensions")
	// ErrDimensionMismatch means embeddings of differing lengths were combined or compared.
	ErrDimensionMismatch = errors.New("biometric: embedding dimension mismatch")
	// ErrInsufficientSamples means too few embeddings were supplied for aggregation.
	ErrInsufficientSamples = errors.New("biometric: insufficient samples")
	// ErrIndexNotReady means the match index was searched before its first load.
	ErrIndexNotReady = errors.New("biometric: match index not ready")
)

// PixelBuffer is an interleaved RGB(A) frame owned by the caller for the
// duration of a call. Stride is in samples, Channels >= 3.
type PixelBuffer struct {
	Width    int
	Height   int
	Channels int
	Pixels   []uint8
}

// Detection is a face bounding box produced by the window scanner.
type Detection struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
}

// Embedding is a fixed-length L2-normalized face descriptor. The zero vector
// is the degenerate embedding and never matches anything.
type Embedding []float64

// AggregatedEmbedding is the enrollment-time representation of one identity
// built from a burst of frames.
type AggregatedEmbedding struct {
	Mean   Embedding `json:"mean" bson:"mean"`
	Median Embedding `json:"median" bson:"median"`
}

// IndexEntry pairs an identity with every embedding variant stored for it.
type IndexEntry struct {
	IdentityID string
	Variants   []Embedding
}

// RankedCandidate is one row of the per-search leaderboard.
type RankedCandidate struct {
	IdentityID string  `json:"identityId"`
	Distance   float64 `json:"distance"`
}

// MatchResult is the successful outcome of a search. SecondDistance is 2.0
// when only a single identity is enrolled.
type MatchResult struct {
	IdentityID       string            `json:"identityId"`
	Distance         float64           `json:"distance"`
	SecondDistance   float64           `json:"secondDistance"`
	Confidence       float64           `json:"confidence"`
	RankedCandidates []RankedCandidate `json:"rankedCandidates"`
}

// IndexStats is a point-in-time snapshot of the match index.
type IndexStats struct {
	Count   int    `json:"count"`
	Version uint64 `json:"version"`
	Ready   bool   `json:"ready"`
}

// QualityReport is the verdict of enrollment sample validation.
type QualityReport struct {
	IsValid bool   `json:"isValid"`
	Reason  string `json:"reason,omitempty"`
}
