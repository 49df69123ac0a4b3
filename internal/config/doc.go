// Package config loads, normalizes, and validates the shelve TOML
// configuration. Paths are tilde-expanded and absolute after Load; zero
// values are backfilled with repository defaults so downstream code never
// re-checks them.
package config
