// Package domain defines the core business entities for docqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Segment: A bounded chunk of document text with provenance
//   - FingerprintSet: Digests of documents already indexed
//   - Session: Per-session conversation, document registry and processed set
//   - RetrievalFilter: A predicate restricting retrieval by source name
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
