// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - EmbeddingService: Turns text into vectors (OpenAI, Ollama)
//   - LLMService: Completion and chat (OpenAI, Anthropic, Ollama)
//   - VectorIndex: Stores segments and runs filtered similarity search (SQLite, memory)
//   - DocumentLoader: Extracts page-level text from an uploaded file (pdftotext)
//   - ProcessedSetStore: Durable record of indexed fingerprints (JSON file)
//   - PostProcessor: One stage of the segment pipeline (chunker, enricher)
//   - ConfigStore / PromptStore: Application configuration and prompt templates
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or loader package
package driven
