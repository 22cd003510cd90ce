// Package dashboard loads the data an HR dashboard needs, one domain at a
// time, and publishes every intermediate state.
//
// A Loader turns (role, organization, user) into a list of required
// domains, publishes a "shell ready" state synchronously (context present,
// every domain at its empty default and loading, aggregate Loading false)
// and then fetches each domain in its own goroutine through the cache.
// Domains finish in any order and never block each other. A failed domain
// falls back to its empty default; only a missing organization or user
// sets the aggregate Error.
//
// State changes only through Reduce. Every message carries the epoch of
// the load cycle that produced it, so results from a superseded cycle are
// dropped, and each domain accepts exactly one terminal message per cycle.
package dashboard
