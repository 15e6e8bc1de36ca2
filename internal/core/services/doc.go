// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The ingestion path is Fingerprint, DocumentLoader, segment pipeline,
// then VectorStore. The answering path is BuildFilter, a Retriever
// strategy, then Chain.
package services
