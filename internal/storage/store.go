// Package storage provides the string-keyed value store the study tool
// persists into. The interface mirrors the browser-local-storage contract the
// data layout was designed around: operations never fail from the caller's
// point of view, and a missing or unreadable value reads as absent.
package storage

// Store is the persistence surface for decks and progress records.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)
	// Set stores value under key, overwriting any previous value.
	Set(key, value string)
	// Delete removes key. Deleting an absent key is a no-op.
	Delete(key string)
	// Keys returns all stored keys with the given prefix, sorted.
	Keys(prefix string) []string
}
