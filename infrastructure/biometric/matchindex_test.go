package biometric

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"veriface.io/infrastructure/biometric/types"
)

func TestSearchBeforeLoadFails(t *testing.T) {
	index := NewMatchIndex()
	_, err := index.Search(types.Embedding{1, 0}, 1.0, 0)
	if !errors.Is(err, types.ErrIndexNotReady) {
		t.Fatalf("expected ErrIndexNotReady, got %v", err)
	}
}

func TestSearchOnLoadedEmptyIndexIsNoMatch(t *testing.T) {
	index := NewMatchIndex()
	if err := index.Rebuild(nil); err != nil {
		t.Fatal(err)
	}
	result, err := index.Search(types.Embedding{1, 0}, 1.0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result != nil {
		t.Fatalf("expected no match on empty index, got %+v", result)
	}
}

func TestAddThenSearchReturnsIdentity(t *testing.T) {
	index := NewMatchIndex()
	e := normalizeL2(types.Embedding{0.2, 0.5, 0.8})
	if err := index.Add("user-1", []types.Embedding{e}); err != nil {
		t.Fatal(err)
	}
	result, err := index.Search(e, 1.0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result == nil {
		t.Fatal("expected a match")
	}
	if result.IdentityID != "user-1" {
		t.Fatalf("matched %s, want user-1", result.IdentityID)
	}
	if result.Distance > 1e-9 {
		t.Fatalf("distance = %v, want ~0", result.Distance)
	}
	if result.Confidence < 0.999 {
		t.Fatalf("confidence = %v, want ~1", result.Confidence)
	}
}

func TestSearchThresholdAndMargin(t *testing.T) {
	index := NewMatchIndex()
	a := normalizeL2(types.Embedding{1, 0.1})
	b := normalizeL2(types.Embedding{0.1, 1})
	if err := index.Add("alice", []types.Embedding{a}); err != nil {
		t.Fatal(err)
	}
	if err := index.Add("bob", []types.Embedding{b}); err != nil {
		t.Fatal(err)
	}

	query := normalizeL2(types.Embedding{1, 0.2})
	best := CosineDistance(query, a)
	second := CosineDistance(query, b)
	if best >= second {
		t.Fatalf("test setup broken: best %v >= second %v", best, second)
	}

	// Threshold above best, zero margin: match.
	result, err := index.Search(query, second, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result == nil || result.IdentityID != "alice" {
		t.Fatalf("expected alice, got %+v", result)
	}
	if result.SecondDistance != second {
		t.Fatalf("secondDistance = %v, want %v", result.SecondDistance, second)
	}

	// Threshold below best: no match.
	result, err = index.Search(query, best/2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result != nil {
		t.Fatalf("expected rejection below threshold, got %+v", result)
	}

	// Margin wider than the gap: ambiguous, rejected even though best passes.
	result, err = index.Search(query, second, (second-best)*2)
	if err != nil {
		t.Fatal(err)
	}
	if result != nil {
		t.Fatalf("expected ambiguity rejection, got %+v", result)
	}
}

func TestSearchSingleEntrySkipsMarginCheck(t *testing.T) {
	index := NewMatchIndex()
	e := normalizeL2(types.Embedding{0.4, 0.9})
	if err := index.Add("solo", []types.Embedding{e}); err != nil {
		t.Fatal(err)
	}
	result, err := index.Search(e, 1.0, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if result == nil || result.IdentityID != "solo" {
		t.Fatalf("single enrolled identity rejected by margin: %+v", result)
	}
	if result.SecondDistance != maxCosineDistance {
		t.Fatalf("secondDistance = %v, want %v for a lone entry", result.SecondDistance, maxCosineDistance)
	}
}

func TestSearchSkipsMismatchedVariants(t *testing.T) {
	index := NewMatchIndex()
	if err := index.Add("user-1", []types.Embedding{{1, 0, 0}}); err != nil {
		t.Fatal(err)
	}
	result, err := index.Search(types.Embedding{1, 0}, 1.5, 0)
	if err != nil {
		t.Fatal(err)
	}
	// The only variant has a different length, so the entry sits at the
	// maximum distance and cannot clear the threshold.
	if result != nil {
		t.Fatalf("mismatched-length variant matched: %+v", result)
	}
}

func TestAddReplacesExistingEntry(t *testing.T) {
	index := NewMatchIndex()
	old := normalizeL2(types.Embedding{1, 0})
	updated := normalizeL2(types.Embedding{0, 1})
	if err := index.Add("user-1", []types.Embedding{old}); err != nil {
		t.Fatal(err)
	}
	if err := index.Add("user-1", []types.Embedding{updated}); err != nil {
		t.Fatal(err)
	}
	if stats := index.Stats(); stats.Count != 1 {
		t.Fatalf("count = %d after replace, want 1", stats.Count)
	}
	result, err := index.Search(old, 0.5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result != nil {
		t.Fatalf("stale variants still matched after replace: %+v", result)
	}
}

func TestAddRejectsDegenerateEmbeddings(t *testing.T) {
	index := NewMatchIndex()
	err := index.Add("user-1", []types.Embedding{make(types.Embedding, 4)})
	if !errors.Is(err, types.ErrInsufficientSamples) {
		t.Fatalf("expected ErrInsufficientSamples for zero vectors, got %v", err)
	}
	if stats := index.Stats(); stats.Count != 0 || stats.Version != 0 {
		t.Fatalf("failed add mutated the index: %+v", stats)
	}
}

func TestRebuildReplacesNotMerges(t *testing.T) {
	index := NewMatchIndex()
	a := normalizeL2(types.Embedding{1, 0})
	b := normalizeL2(types.Embedding{0, 1})
	if err := index.Rebuild([]types.IndexEntry{{IdentityID: "A", Variants: []types.Embedding{a}}}); err != nil {
		t.Fatal(err)
	}
	if err := index.Rebuild([]types.IndexEntry{{IdentityID: "B", Variants: []types.Embedding{b}}}); err != nil {
		t.Fatal(err)
	}
	result, err := index.Search(a, 1.9, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result != nil && result.IdentityID == "A" {
		t.Fatal("rebuild merged instead of replacing: A still present")
	}
}

func TestRebuildIsAllOrNothing(t *testing.T) {
	index := NewMatchIndex()
	a := normalizeL2(types.Embedding{1, 0})
	if err := index.Rebuild([]types.IndexEntry{{IdentityID: "A", Variants: []types.Embedding{a}}}); err != nil {
		t.Fatal(err)
	}
	before := index.Stats()

	err := index.Rebuild([]types.IndexEntry{
		{IdentityID: "B", Variants: []types.Embedding{normalizeL2(types.Embedding{0, 1})}},
		{IdentityID: "C", Variants: []types.Embedding{make(types.Embedding, 2)}},
	})
	if !errors.Is(err, types.ErrInsufficientSamples) {
		t.Fatalf("expected ErrInsufficientSamples, got %v", err)
	}
	after := index.Stats()
	if after.Count != before.Count || after.Version != before.Version {
		t.Fatalf("failed rebuild mutated the index: before %+v after %+v", before, after)
	}
	result, err := index.Search(a, 0.5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result == nil || result.IdentityID != "A" {
		t.Fatalf("previous entry set lost after failed rebuild: %+v", result)
	}
}

func TestRemoveVersionSemantics(t *testing.T) {
	index := NewMatchIndex()
	if err := index.Add("user-1", []types.Embedding{normalizeL2(types.Embedding{1, 0})}); err != nil {
		t.Fatal(err)
	}
	v := index.Stats().Version

	if !index.Remove("user-1") {
		t.Fatal("expected removal of present entry")
	}
	if index.Stats().Version != v+1 {
		t.Fatalf("version = %d after removal, want %d", index.Stats().Version, v+1)
	}
	if index.Remove("user-1") {
		t.Fatal("removal of absent entry reported success")
	}
	if index.Stats().Version != v+1 {
		t.Fatal("version moved on a no-op removal")
	}
}

func TestSearchRankedCandidates(t *testing.T) {
	index := NewMatchIndex()
	entries := []types.IndexEntry{}
	for i := 0; i < 8; i++ {
		e := normalizeL2(types.Embedding{1, float64(i) * 0.2})
		entries = append(entries, types.IndexEntry{
			IdentityID: fmt.Sprintf("user-%d", i),
			Variants:   []types.Embedding{e},
		})
	}
	if err := index.Rebuild(entries); err != nil {
		t.Fatal(err)
	}
	result, err := index.Search(normalizeL2(types.Embedding{1, 0}), 1.0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result == nil {
		t.Fatal("expected a match")
	}
	if len(result.RankedCandidates) != rankedCandidateLimit {
		t.Fatalf("ranked candidates = %d, want %d", len(result.RankedCandidates), rankedCandidateLimit)
	}
	for i := 1; i < len(result.RankedCandidates); i++ {
		if result.RankedCandidates[i].Distance < result.RankedCandidates[i-1].Distance {
			t.Fatal("ranked candidates are not sorted by ascending distance")
		}
	}
	if result.RankedCandidates[0].IdentityID != result.IdentityID {
		t.Fatal("top ranked candidate differs from the match")
	}
}

func TestConcurrentSearchAndMutation(t *testing.T) {
	index := NewMatchIndex()
	base := normalizeL2(types.Embedding{1, 0.5})
	if err := index.Rebuild([]types.IndexEntry{{IdentityID: "seed", Variants: []types.Embedding{base}}}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				switch i % 4 {
				case 0:
					_ = index.Add(fmt.Sprintf("user-%d", id), []types.Embedding{base})
				case 1:
					index.Remove(fmt.Sprintf("user-%d", id))
				default:
					if _, err := index.Search(base, 1.0, 0); err != nil {
						t.Error(err)
						return
					}
				}
			}
		}(worker)
	}
	wg.Wait()

	if stats := index.Stats(); !stats.Ready {
		t.Fatal("index lost readiness under concurrent mutation")
	}
}
