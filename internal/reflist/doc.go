// Package reflist caches the small SymbolDB reference lists (exchanges,
// schedules, accounts, gateways and friends) and renders them as
// display/id entries.
//
// Lists are read through a Store so repeated runs do not hit SymbolDB. Two
// stores exist: FileStore keeps one JSON document per line under
// cache/<env>/<list>.jsonl and treats the file mtime as the refresh time;
// BadgerStore keeps each list as a single badger entry with a native TTL.
//
// The demo environment shares prod reference data, so every list requested
// for demo is read from and written to the prod slot.
package reflist
