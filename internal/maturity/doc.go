// Package maturity implements the futures month-code table and the date
// shorthands used to name expirations.
//
// Numeric maturities are "YYYY-MM" or "YYYY-MM-DD". Symbolic maturities use the
// month letter followed by the year, optionally prefixed by a day: "Z2021",
// "15Z2023".
package maturity
