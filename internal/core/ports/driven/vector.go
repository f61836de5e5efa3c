package driven

// VectorIndex is an in-memory similarity index over chunk embeddings.
// It is append-only while building and read-only at query time.
type VectorIndex interface {
	// Add appends a vector. Insertion order breaks ranking ties.
	Add(chunkID string, embedding []float32) error

	// Search finds the k nearest neighbours to the query vector.
	Search(query []float32, k int) []VectorHit

	// MMR selects k vectors from the fetchK nearest by maximal marginal relevance.
	// Lambda 1 ranks purely by relevance, 0 purely by diversity.
	MMR(query []float32, k, fetchK int, lambda float64) []VectorHit

	// Len returns the number of vectors.
	Len() int

	// Dimensions returns the vector length, or 0 when empty.
	Dimensions() int
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity to the query.
	Similarity float64
}
