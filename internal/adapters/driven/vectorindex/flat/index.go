// Package flat provides an exact cosine-similarity vector index held in
// memory. Corpora of a few thousand regulatory documents fit comfortably,
// so every query scans all vectors.
package flat

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/normrag/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// ErrDimensionMismatch is returned when a vector's length differs from the index.
var ErrDimensionMismatch = errors.New("flat: dimension mismatch")

// Index stores L2-normalised vectors in insertion order.
type Index struct {
	mu        sync.RWMutex
	ids       []string
	vectors   [][]float32
	dimension int
}

// New creates an index. A dimension of 0 is fixed by the first Add.
func New(dimension int) *Index {
	return &Index{dimension: dimension}
}

// Add appends a vector for chunkID.
func (idx *Index) Add(chunkID string, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("flat: empty vector for %s", chunkID)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dimension == 0 {
		idx.dimension = len(embedding)
	}
	if len(embedding) != idx.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(embedding), idx.dimension)
	}

	idx.ids = append(idx.ids, chunkID)
	idx.vectors = append(idx.vectors, normalise(embedding))
	return nil
}

// Search returns the k most similar vectors, best first.
// Equal similarities keep insertion order.
func (idx *Index) Search(query []float32, k int) []driven.VectorHit {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ranked := idx.rank(query)
	if k < len(ranked) {
		ranked = ranked[:k]
	}

	hits := make([]driven.VectorHit, len(ranked))
	for i, c := range ranked {
		hits[i] = driven.VectorHit{ChunkID: idx.ids[c.pos], Similarity: c.sim}
	}
	return hits
}

// MMR selects k of the fetchK most similar vectors by maximal marginal
// relevance: each step picks the candidate maximising
// lambda*sim(query) - (1-lambda)*max sim(selected).
func (idx *Index) MMR(query []float32, k, fetchK int, lambda float64) []driven.VectorHit {
	if k <= 0 {
		return nil
	}
	if fetchK < k {
		fetchK = k
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	candidates := idx.rank(query)
	if fetchK < len(candidates) {
		candidates = candidates[:fetchK]
	}
	if len(candidates) == 0 {
		return nil
	}

	selected := make([]candidate, 0, k)
	used := make([]bool, len(candidates))
	// maxSim[i] is the highest similarity of candidate i to any selected vector.
	maxSim := make([]float64, len(candidates))
	for i := range maxSim {
		maxSim[i] = math.Inf(-1)
	}

	for len(selected) < k && len(selected) < len(candidates) {
		best := -1
		bestScore := math.Inf(-1)
		for i, c := range candidates {
			if used[i] {
				continue
			}
			score := lambda * c.sim
			if len(selected) > 0 {
				score -= (1 - lambda) * maxSim[i]
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}

		used[best] = true
		chosen := candidates[best]
		selected = append(selected, chosen)

		for i, c := range candidates {
			if used[i] {
				continue
			}
			if s := dot(idx.vectors[c.pos], idx.vectors[chosen.pos]); s > maxSim[i] {
				maxSim[i] = s
			}
		}
	}

	hits := make([]driven.VectorHit, len(selected))
	for i, c := range selected {
		hits[i] = driven.VectorHit{ChunkID: idx.ids[c.pos], Similarity: c.sim}
	}
	return hits
}

// Len returns the number of vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ids)
}

// Dimensions returns the vector length.
func (idx *Index) Dimensions() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dimension
}

type candidate struct {
	pos int
	sim float64
}

// rank scores every vector against query, best first. Caller holds the lock.
func (idx *Index) rank(query []float32) []candidate {
	if len(query) != idx.dimension || len(idx.vectors) == 0 {
		return nil
	}
	q := normalise(query)

	ranked := make([]candidate, len(idx.vectors))
	for i, v := range idx.vectors {
		ranked[i] = candidate{pos: i, sim: dot(q, v)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].sim > ranked[j].sim
	})
	return ranked
}

// normalise returns a unit-length copy of v. A zero vector stays zero.
func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
