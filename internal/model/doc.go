// Package model defines the instrument document shared by every SymbolDB tool.
//
// A Document is the decoded JSON body of one tree node. Nested objects are
// always map[string]any and arrays are always []any so that documents decoded
// from the store and documents built in memory compare and merge the same way.
//
// Conventions:
//   - Identity fields start with an underscore (_id, _rev, _creationTime, _lastUpdateTime)
//   - path lists ancestor ids root first and ends with the node's own id once saved
//   - Dates are stored as {year, month, day[, time]} objects
package model
