// Package artifact contains concrete implementations of core.ArtifactStore.
//
// The canonical ArtifactStore interface lives in the core package to avoid
// dependency cycles and keep domain contracts central. Backends here share
// the same semantics: artifact ids are the hex SHA-256 of the payload, so a
// Put of identical bytes is idempotent and stored content is write-once.
//
// Callers should depend on the core interface rather than concrete types so
// they can substitute persistence layers in tests or production.
package artifact
