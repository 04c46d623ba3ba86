// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Vectors for chunks, questions and answers
//   - VectorIndex: Snapshot-swapped nearest-neighbour index
//   - AnswerOracle: Extractive question answering
//   - EntityExtractor: Named entities for the hallucination check
//   - ExtractorRegistry: Upload bytes to plain text
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Summaries. Without it the frequency summariser is used.
//   - EmbeddingCache: Skips re-embedding unchanged chunks.
//   - PromptStore: User-editable prompt templates.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
