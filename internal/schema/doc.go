// Package schema checks compiled instrument documents against the fields
// SymbolDB requires for each instrument type.
//
// Documents are decoded into typed structs so wrong JSON types surface as
// decoding errors, then the structs are checked with validator tags.
// Problems are reported as FieldError values keyed by the '/' separated
// document path; nothing here fails a write on its own.
package schema
