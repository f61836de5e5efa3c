package domain

import "fmt"

// RetrievalStrategy selects how candidates are ranked.
type RetrievalStrategy string

const (
	// StrategySimilarity returns the nearest neighbours by cosine similarity.
	StrategySimilarity RetrievalStrategy = "similarity"

	// StrategyMMR re-ranks a candidate pool by maximal marginal relevance.
	StrategyMMR RetrievalStrategy = "mmr"
)

// IsValid returns true if the strategy is recognised.
func (s RetrievalStrategy) IsValid() bool {
	return s == StrategySimilarity || s == StrategyMMR
}

// RetrievalProfile is the set of tuned retrieval parameters for one mode.
type RetrievalProfile struct {
	// Strategy is similarity or mmr.
	Strategy RetrievalStrategy

	// K is the number of chunks returned.
	K int

	// FetchK is the size of the candidate pool MMR selects from.
	FetchK int

	// Lambda trades relevance (1) against diversity (0).
	Lambda float64

	// Temperature is the sampling temperature for generation in this mode.
	Temperature float64
}

// Validate checks the profile parameters.
func (p RetrievalProfile) Validate() error {
	if !p.Strategy.IsValid() {
		return fmt.Errorf("%w: unknown retrieval strategy %q", ErrInvalidInput, p.Strategy)
	}
	if p.K <= 0 {
		return fmt.Errorf("%w: k must be positive, got %d", ErrInvalidInput, p.K)
	}
	if p.Strategy == StrategyMMR && p.FetchK < p.K {
		return fmt.Errorf("%w: fetch_k (%d) must be at least k (%d)", ErrInvalidInput, p.FetchK, p.K)
	}
	if p.Lambda < 0 || p.Lambda > 1 {
		return fmt.Errorf("%w: lambda must be within [0, 1], got %g", ErrInvalidInput, p.Lambda)
	}
	return nil
}

// RetrievalProfiles holds the independently tuned profile of each mode.
type RetrievalProfiles struct {
	// Search favours precision over variety.
	Search RetrievalProfile

	// TT favours breadth over precision.
	TT RetrievalProfile

	// QA is used for plain context retrieval.
	QA RetrievalProfile
}

// Profile names used in configuration and on the command line.
const (
	ProfileSearch = "search"
	ProfileTT     = "tt"
	ProfileQA     = "qa"
)

// Named returns the profile with the given name.
func (p RetrievalProfiles) Named(name string) (RetrievalProfile, bool) {
	switch name {
	case ProfileSearch:
		return p.Search, true
	case ProfileTT:
		return p.TT, true
	case ProfileQA:
		return p.QA, true
	default:
		return RetrievalProfile{}, false
	}
}

// For returns the profile used by a response mode.
func (p RetrievalProfiles) For(m Mode) RetrievalProfile {
	if m == ModeTT {
		return p.TT
	}
	return p.Search
}

// DefaultRetrievalProfiles returns the tuned defaults.
func DefaultRetrievalProfiles() RetrievalProfiles {
	return RetrievalProfiles{
		Search: RetrievalProfile{Strategy: StrategyMMR, K: 6, FetchK: 60, Lambda: 0.8, Temperature: 0.0},
		TT:     RetrievalProfile{Strategy: StrategyMMR, K: 10, FetchK: 20, Lambda: 0.5, Temperature: 0.2},
		QA:     RetrievalProfile{Strategy: StrategyMMR, K: 8, FetchK: 20, Lambda: 0.8, Temperature: 0.0},
	}
}

// RetrievedChunk is one result of a retrieval query.
type RetrievedChunk struct {
	// Chunk is the stored chunk, including its metadata snapshot.
	Chunk Chunk

	// Rank is the 1-based position in the result list.
	Rank int

	// Score is the cosine similarity to the query.
	Score float64
}
