package generate

import "strings"

// StripFence removes a leading markdown code-fence opener (with or without a
// language tag) and a trailing closer from a model reply, then trims
// whitespace. Models are instructed to reply with raw JSON but routinely
// wrap it anyway, so normalization is token-based rather than fixed-offset
// slicing and must never alter the payload itself.
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		rest := s[3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			if isLanguageTag(rest[:nl]) {
				rest = rest[nl+1:]
			}
		} else {
			// single-line reply like "```json" with nothing after; any
			// trailing fence is handled below
			rest = strings.TrimSpace(rest)
			rest = strings.TrimPrefix(rest, "json")
		}
		s = rest
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// isLanguageTag reports whether the text between the opening fence and the
// first newline is a fence info string (empty or a bare word like "json")
// rather than payload content.
func isLanguageTag(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
