// Package errors provides the unified error type of the compgraph engine.
// Every failure surfaced by an operator, a source, or the sorter carries a
// machine-readable code so callers can tell a missing column from an
// unreadable file without string matching.
package errors
