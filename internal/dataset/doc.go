// Package dataset loads the raw market data files consumed by the risk
// engine and maps their heterogeneous column headers onto a canonical
// schema.
//
// Two sources are supported:
//
//   - Price/volume history: one row per (ticker, date) with OHLCV fields
//     and an optional exchange column.
//   - Shares outstanding: one row per (ticker, year).
//
// Source files come from several upstream exporters with localized
// (Vietnamese or English) headers, so column resolution is alias-driven:
// an exact case-insensitive match is tried first over an ordered alias
// list, then substring containment. Resolution results carry the list of
// candidates tried so failures are debuggable.
//
// Rows that cannot be parsed are skipped with a warning; duplicate
// (ticker, date) pairs are a schema violation and abort the load, since
// every downstream rolling computation assumes one row per session.
package dataset
