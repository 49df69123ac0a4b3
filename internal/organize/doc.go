// Package organize plans and executes file moves into the library tree,
// resolving name collisions according to the configured strategy and
// recording every completed move for later undo.
package organize
