// Package inherit compiles an instrument with its ancestors into one document.
//
// Documents are merged root first. Every field is merged according to a
// declared Strategy; fields nobody declared fall back to Object for mappings,
// ReplaceList for lists and Scalar for everything else. Ordered lists whose
// items carry an identifying key (broker accounts, feed gateways) use the
// OrderedList strategy: child items move to the front, inherited items that
// the child did not mention keep their relative order behind them.
package inherit
