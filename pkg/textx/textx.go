// Package textx provides small text utilities used across the project.
package textx

import (
	"strings"
)

// Ellipsis marks text cut off by Trim.
const Ellipsis = "…"

// SanitizeText removes control characters except tab/newline/CR and trims spaces.
func SanitizeText(s string) string {
	// strip control chars outside tab/newline/carriage return
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Normalize canonicalizes s for comparison: lowercase, every character
// outside [a-z0-9] and whitespace becomes a space, whitespace runs collapse
// to a single space, ends trimmed. Idempotent.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens returns the set of normalized word tokens of s.
func Tokens(s string) map[string]struct{} {
	fields := strings.Fields(Normalize(s))
	set := make(map[string]struct{}, len(fields))
	for _, t := range fields {
		set[t] = struct{}{}
	}
	return set
}

// Trim strips s and truncates it to limit runes, appending an ellipsis when
// content was cut. limit <= 0 disables truncation.
func Trim(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + Ellipsis
}

// Keywords extracts up to limit content words from s: normalized tokens of
// length >= 4, deduplicated preserving first-seen order. limit <= 0 means
// unbounded.
func Keywords(s string, limit int) []string {
	toks := strings.Fields(Normalize(s))
	out := make([]string, 0, len(toks))
	seen := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		if len(t) < 4 {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
