// Package scan enumerates directories into FileRecord values for the
// categorization pipeline. It also answers the folder-structure query the
// categorizer uses to learn which library folders are already in use.
package scan
