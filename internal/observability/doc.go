// Package observability journals realtime bus events as JSON Lines, derives
// activity metrics from the journal, and evaluates compliance alerts over
// the repository's clients and documents.
package observability
