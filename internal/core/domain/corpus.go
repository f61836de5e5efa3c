package domain

import "time"

// Corpus names one of the independently indexed document collections.
type Corpus string

const (
	// CorpusNormative holds all regulatory documents.
	CorpusNormative Corpus = "normative"

	// CorpusTT holds technical-requirement reference documents.
	CorpusTT Corpus = "tt"
)

// IsValid returns true if the corpus is recognised.
func (c Corpus) IsValid() bool {
	return c == CorpusNormative || c == CorpusTT
}

// String returns the string representation.
func (c Corpus) String() string {
	return string(c)
}

// AllCorpora returns the corpora in build order.
func AllCorpora() []Corpus {
	return []Corpus{CorpusNormative, CorpusTT}
}

// ManifestVersion is the on-disk index format version.
const ManifestVersion = 1

// IndexManifest describes a persisted index.
type IndexManifest struct {
	// Version is the on-disk format version.
	Version int `toml:"version"`

	// Corpus is the corpus the index was built from, if known.
	Corpus string `toml:"corpus,omitempty"`

	// CorpusPath is the directory the documents were loaded from.
	CorpusPath string `toml:"corpus_path"`

	// EmbeddingModel is the model the vectors were computed with.
	EmbeddingModel string `toml:"embedding_model"`

	// Dimensions is the vector length.
	Dimensions int `toml:"dimensions"`

	// Documents is the number of documents indexed.
	Documents int `toml:"documents"`

	// Chunks is the number of index entries.
	Chunks int `toml:"chunks"`

	// ChunkSize and ChunkOverlap record the chunker configuration.
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`

	// BuiltAt is when the build completed.
	BuiltAt time.Time `toml:"built_at"`
}

// IndexStatus reports the state of one corpus index.
type IndexStatus struct {
	Corpus      Corpus
	PersistPath string
	Built       bool
	Manifest    *IndexManifest
}

// LoadFailure records a file the loader skipped.
type LoadFailure struct {
	Path string
	Err  error
}

// LoadResult is the outcome of loading a corpus directory.
type LoadResult struct {
	// Documents are the successfully loaded documents, in walk order.
	Documents []Document

	// Failures are the files that were skipped.
	Failures []LoadFailure
}
