// Package services holds the cross-cutting error taxonomy and context
// annotations shared by shelve components.
//
// Errors produced by long-running operations are wrapped with a sentinel
// marker (validation, configuration, transient, external) so callers can
// classify failures without string matching. Context helpers carry the
// pipeline run identifier into structured logs.
package services
