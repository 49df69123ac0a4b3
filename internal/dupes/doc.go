// Package dupes finds files with identical content by hashing candidate
// files and grouping matching fingerprints. Hashing is opt-in because it
// reads every file in full; an optional SQLite cache keyed by path, size,
// and mtime lets repeated reports skip unchanged files.
package dupes
