package biometric

import (
	"math"
	"sort"
	"sync"

	"veriface.io/infrastructure/biometric/types"
)

// MaxRawSamples bounds how many raw per-frame embeddings are kept per entry on
// top of the mean and median variants.
const MaxRawSamples = 5

// maxCosineDistance is returned when either vector is degenerate.
const maxCosineDistance = 2.0

// rankedCandidateLimit is the depth of the leaderboard returned with a match.
const rankedCandidateLimit = 5

// CosineDistance is 1 minus the cosine similarity of two vectors. Vectors of
// mismatched length or zero magnitude are maximally distant.
func CosineDistance(a, b types.Embedding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return maxCosineDistance
	}
	dot, normA, normB := 0.0, 0.0, 0.0
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return maxCosineDistance
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// MatchIndex is the one piece of shared mutable state in the pipeline: an
// in-memory set of enrolled identities. Reads run concurrently under the read
// lock; Add/Remove/Rebuild take the write lock, and Rebuild constructs the
// replacement set off to the side so readers never observe a half-populated
// index.
type MatchIndex struct {
	mutex   sync.RWMutex
	entries []types.IndexEntry
	version uint64
	ready   bool
}

// NewMatchIndex returns an index in the Empty state; Search fails with
// ErrIndexNotReady until the first Rebuild or Add.
func NewMatchIndex() *MatchIndex {
	return &MatchIndex{}
}

// Rebuild atomically replaces the entire entry set. Entries without a single
// non-degenerate variant make the whole rebuild fail, leaving the previous
// set intact.
func (mi *MatchIndex) Rebuild(entries []types.IndexEntry) error {
	next := make([]types.IndexEntry, 0, len(entries))
	for _, entry := range entries {
		variants := usableVariants(entry.Variants)
		if len(variants) == 0 {
			return types.ErrInsufficientSamples
		}
		next = append(next, types.IndexEntry{IdentityID: entry.IdentityID, Variants: variants})
	}

	mi.mutex.Lock()
	defer mi.mutex.Unlock()
	mi.entries = next
	mi.version++
	mi.ready = true
	return nil
}

// Add enrolls or replaces one identity. At least one non-degenerate embedding
// is required; an entry with zero valid variants is never stored.
func (mi *MatchIndex) Add(identityID string, embeddings []types.Embedding) error {
	variants := usableVariants(embeddings)
	if len(variants) == 0 {
		return types.ErrInsufficientSamples
	}

	mi.mutex.Lock()
	defer mi.mutex.Unlock()
	entry := types.IndexEntry{IdentityID: identityID, Variants: variants}
	for i := range mi.entries {
		if mi.entries[i].IdentityID == identityID {
			mi.entries[i] = entry
			mi.version++
			mi.ready = true
			return nil
		}
	}
	mi.entries = append(mi.entries, entry)
	mi.version++
	mi.ready = true
	return nil
}

// Remove deletes an identity if present. The version moves only when a
// removal actually happened.
func (mi *MatchIndex) Remove(identityID string) bool {
	mi.mutex.Lock()
	defer mi.mutex.Unlock()
	for i := range mi.entries {
		if mi.entries[i].IdentityID == identityID {
			mi.entries = append(mi.entries[:i], mi.entries[i+1:]...)
			mi.version++
			return true
		}
	}
	return false
}

// Search finds the enrolled identity closest to the query embedding. A nil
// result means no identity matched - distinct from an error. The margin
// requirement rejects ambiguous queries where two enrolled identities are
// nearly equidistant from the probe.
func (mi *MatchIndex) Search(query types.Embedding, threshold, margin float64) (*types.MatchResult, error) {
	mi.mutex.RLock()
	defer mi.mutex.RUnlock()

	if !mi.ready {
		return nil, types.ErrIndexNotReady
	}
	if len(mi.entries) == 0 {
		return nil, nil
	}

	candidates := make([]types.RankedCandidate, 0, len(mi.entries))
	for _, entry := range mi.entries {
		best := maxCosineDistance
		for _, variant := range entry.Variants {
			if len(variant) != len(query) {
				continue
			}
			if d := CosineDistance(query, variant); d < best {
				best = d
			}
		}
		candidates = append(candidates, types.RankedCandidate{IdentityID: entry.IdentityID, Distance: best})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	best := candidates[0]
	if best.Distance >= threshold {
		return nil, nil
	}

	second := maxCosineDistance
	if len(candidates) > 1 {
		second = candidates[1].Distance
		if second-best.Distance < margin {
			return nil, nil
		}
	}

	limit := rankedCandidateLimit
	if len(candidates) < limit {
		limit = len(candidates)
	}
	ranked := make([]types.RankedCandidate, limit)
	copy(ranked, candidates[:limit])

	return &types.MatchResult{
		IdentityID:       best.IdentityID,
		Distance:         best.Distance,
		SecondDistance:   second,
		Confidence:       1 - best.Distance/threshold,
		RankedCandidates: ranked,
	}, nil
}

// Stats reports the current entry count and version under the read lock.
func (mi *MatchIndex) Stats() types.IndexStats {
	mi.mutex.RLock()
	defer mi.mutex.RUnlock()
	return types.IndexStats{Count: len(mi.entries), Version: mi.version, Ready: mi.ready}
}

// usableVariants copies the non-degenerate embeddings, dropping zero vectors.
func usableVariants(embeddings []types.Embedding) []types.Embedding {
	variants := make([]types.Embedding, 0, len(embeddings))
	for _, e := range embeddings {
		if isDegenerate(e) {
			continue
		}
		variant := make(types.Embedding, len(e))
		copy(variant, e)
		variants = append(variants, variant)
	}
	return variants
}

func isDegenerate(e types.Embedding) bool {
	if len(e) == 0 {
		return true
	}
	for _, v := range e {
		if v != 0 {
			return false
		}
	}
	return true
}
