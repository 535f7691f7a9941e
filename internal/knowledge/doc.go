// Package knowledge provides the per-user document store for kompow.
//
// Each user owns one isolated collection backed by an embedded chromem-go
// vector index persisted under a per-user directory. A collection is opened
// lazily on first access and cached for the process lifetime.
//
// Collections carry an optional embedding capability. When no embedder is
// configured (missing or placeholder API credential) the collection opens in
// degraded mode: this is a first-class, observable state, not an error.
// Degraded collections reject precondition-checked writes with ErrNoEmbedder
// and fail closed (empty results) on search.
//
// State machine per collection handle:
//
//	Uninitialized -> {Ready, Degraded, FailedInit}
//
// All three outcomes are terminal for the process lifetime of the handle.
// FailedInit is represented as an error return from Open; no handle is
// produced.
package knowledge
