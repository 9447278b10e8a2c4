// Package sdb provides the SymbolDB editor REST client.
//
// Endpoints (relative to .../symboldb-editor/api/v1.0):
//   - instruments/{id}           single document
//   - instruments?childId=       a document and its ancestors
//   - instruments?parentId=      direct children
//   - instruments?fields=...     the whole tree, reduced to the listed fields
//   - batch                      line-delimited create/update actions
//
// Requests carry the session in the X-Auth-SessionId header. Reads retry on
// 5xx, 429 and transport errors; batch writes are never retried.
package sdb
