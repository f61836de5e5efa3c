package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names.
// Both templates take the formatted context as %[1]s and the question as %[2]s.
const (
	// PromptSearch answers strictly from the provided normative context.
	PromptSearch = "search"

	// PromptTT synthesises a technical requirements document.
	PromptTT = "tt"
)
