// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Connector: Enumerates files of a corpus directory
//   - Normaliser: Extracts text from raw files
//   - NormaliserRegistry: Selects appropriate normaliser
//   - PostProcessor: Chunking and section annotation
//   - EmbeddingService: Computes embedding vectors (build and query time)
//   - IndexStore: Persists and reloads built indexes
//   - ConfigStore: Application configuration
//
// # Query-Time Interfaces
//
//   - LLMService: Generation backend for chat replies
//   - PromptStore: Prompt templates per mode
//   - Dispatcher: Bounded submission of generation calls with a timeout
//   - ChatStore: Session persistence
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
