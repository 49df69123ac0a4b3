// Package pipeline connects the scanner, categorizer, executor, and history
// log into the end-to-end organize flow, for one-shot runs and for watch
// mode.
package pipeline
