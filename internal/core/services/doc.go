// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Indexing runs as an explicit batch through Loader and IndexService.
// At query time ChatService classifies each request, retrieves context
// from the matching corpus and dispatches one generation call per turn.
package services
