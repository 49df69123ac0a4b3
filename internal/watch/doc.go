// Package watch monitors directories for new and changed files, waits for
// each file to stop growing, and emits coalesced batches after the burst of
// activity has quieted down.
package watch
