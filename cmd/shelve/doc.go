// Package main hosts the shelve CLI entrypoint and command graph.
//
// The Cobra-based command tree covers one-shot organizing, continuous watch
// mode, duplicate reporting, and history inspection with undo. It
// centralizes configuration resolution and structured logging setup so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
