// Package naming derives the canonical symbolId and the UTC expiry timestamp of
// a compiled instrument document.
//
// Both functions are pure given a References implementation that resolves
// exchange ids to exchange names and schedule ids to IANA timezones. Namer
// wraps them for callers holding raw, uncompiled documents.
package naming
