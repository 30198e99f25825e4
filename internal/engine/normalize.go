// Package engine implements the anomaly detection and recommendation
// engine: signature normalization, count-based and statistical
// detectors, alert cooldowns, and keyword-driven recommendations.
package engine

import "regexp"

// maxSignatureLength bounds normalized signatures.
const maxSignatureLength = 200

var (
	digitRunPattern = regexp.MustCompile(`\d+`)
	uuidPattern     = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	endpointPattern = regexp.MustCompile(`(GET|POST|PUT|DELETE|PATCH)\s+(/api/\S+)`)
)

// NormalizeMessage converts a raw error message into a canonical
// signature: UUID-shaped tokens become "UUID", digit runs become "N",
// and the result is truncated to 200 characters. UUIDs are erased
// before digits so that two messages differing only in a digit-bearing
// UUID still yield the same signature. Pure and total; an empty
// message yields an empty signature.
func NormalizeMessage(message string) string {
	normalized := uuidPattern.ReplaceAllString(message, "UUID")
	normalized = digitRunPattern.ReplaceAllString(normalized, "N")

	runes := []rune(normalized)
	if len(runes) > maxSignatureLength {
		return string(runes[:maxSignatureLength])
	}
	return normalized
}

// ExtractEndpoint pulls an "METHOD /api/..." endpoint identifier out of
// a log message. Returns "" if the message contains no such pattern.
func ExtractEndpoint(message string) string {
	m := endpointPattern.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	return m[1] + " " + m[2]
}
