// Package history persists organizing operations so they can be inspected
// and reversed. The log is a single JSON file holding entries newest-first,
// rewritten atomically on every persist; a flock guards against concurrent
// shelve processes. History is a convenience layer: a missing or corrupt
// store reads as empty and never blocks a move.
package history
