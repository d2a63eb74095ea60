// Package fundamentals extracts valuation, growth, performance,
// financial-health, and dividend metrics for a ticker from financial
// statement CSV exports, and renders them into an analysis prompt for an
// external language model.
//
// The statement files carry free-form, often localized ratio columns, so
// every metric is located by fuzzy column resolution (ordered candidate
// list, exact match then containment, case-insensitive) rather than a
// fixed schema. A metric whose column cannot be found reads as zero;
// only a missing required source file or an entirely unknown ticker is
// an error.
package fundamentals
