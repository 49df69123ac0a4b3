// Package textutil sanitizes model-suggested names for safe filesystem use.
package textutil

import "strings"

// segmentReplacer replaces filesystem-unsafe characters with safe
// alternatives. Separators become dashes; the rest are removed.
var segmentReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeSegment cleans one path segment. Leading dots are stripped so a
// suggested folder can never become hidden or a relative reference.
func SanitizeSegment(segment string) string {
	segment = strings.TrimSpace(segmentReplacer.Replace(segment))
	segment = strings.TrimLeft(segment, ".")
	return strings.TrimSpace(segment)
}
