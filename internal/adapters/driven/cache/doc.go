// Package cache holds helpers shared by the embedding cache adapters.
//
// Adapters live in subpackages:
//
//   - sqlite: persistent cache in a local SQLite file
//   - memory: in-process cache with TTL expiry
//   - redis: shared cache in Redis with TTL expiry
//
// Entries are keyed by model and text, so switching embedding models never
// returns vectors from another model.
package cache
