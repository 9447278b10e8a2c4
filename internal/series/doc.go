// Package series manages the expiration set of one derivative series: the
// folder document, its existing contracts and the contracts pending creation.
//
// A Series is loaded from SymbolDB (Load) or started from scratch (New).
// Expirations are then added in memory and written back with Commit, which
// issues at most one batch create and one batch update.
package series
