// Package session contains concrete implementations of core.SessionStore.
//
// The canonical SessionStore interface lives in the core package to keep
// domain contracts central. Both backends here enforce the same optimistic
// concurrency contract: AppendTurn commits a turn and state delta only when
// the caller's expected version matches the stored version, otherwise it
// returns *core.VersionConflictError and changes nothing.
package session
