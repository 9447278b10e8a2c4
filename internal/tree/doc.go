// Package tree indexes the SymbolDB instrument tree.
//
// Every node carries its full path of ancestor ids ending with its own id.
// Nodes are kept in an ordered id index with a parent → children index on
// the side, so name lookups walk one level at a time instead of scanning the
// whole tree.
package tree
