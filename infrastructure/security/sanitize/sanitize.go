// Package sanitize redacts host filesystem structure from messages that
// leave the process. Redaction is heuristic: it recognizes path shapes,
// not every possible encoding of a path.
package sanitize

import "regexp"

// Placeholders substituted for redacted paths.
const (
	SystemPath = "<system-path>"
	UserPath   = "<user-path>"
	Path       = "<path>"
)

// Rule replaces every match of Pattern with Replacement. Replacement may
// reference capture groups using regexp.Expand syntax.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// boundary keeps relative paths like "out/a.pdf" intact: an absolute path
// must start the message or follow a character that cannot be part of a
// path segment.
const boundary = `(^|[^\w.\-/~])`

// pathChar excludes whitespace, quotes, closing brackets and the
// separators ":,;|".
const pathChar = "[^\\s'\"\\])}>`:,;|]"

const pathBody = pathChar + "+"

var defaultRules = []Rule{
	{
		Name:        "system",
		Pattern:     regexp.MustCompile(boundary + `/(?:etc|usr|var|proc|sys|opt|root|boot|srv|tmp|private)/` + pathBody),
		Replacement: "${1}" + SystemPath,
	},
	{
		Name:        "home",
		Pattern:     regexp.MustCompile(boundary + `/(?:home|Users)/` + pathBody),
		Replacement: "${1}" + UserPath,
	},
	{
		Name:        "absolute",
		Pattern:     regexp.MustCompile(boundary + `/` + pathBody),
		Replacement: "${1}" + Path,
	},
	{
		Name:        "windows-absolute",
		Pattern:     regexp.MustCompile(`\b[A-Za-z]:[\\/]` + pathChar + "*"),
		Replacement: Path,
	},
}

// DefaultRules returns the built-in ordered rule list. Specific rules come
// before general ones so the most informative placeholder wins.
func DefaultRules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}

// Sanitizer applies an ordered list of rules.
type Sanitizer struct {
	rules []Rule
}

// New creates a sanitizer. With no rules it uses DefaultRules.
func New(rules ...Rule) *Sanitizer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Sanitizer{rules: rules}
}

// Rules returns the rules in application order.
func (s *Sanitizer) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Sanitize redacts raw and, when hint is non-empty, prefixes "<hint>: ".
func (s *Sanitizer) Sanitize(raw, hint string) string {
	msg := raw
	for _, r := range s.rules {
		msg = r.Pattern.ReplaceAllString(msg, r.Replacement)
	}
	if hint != "" {
		return hint + ": " + msg
	}
	return msg
}

// SanitizeError is Sanitize over err.Error(). A nil error yields the hint
// alone, or "unknown error".
func (s *Sanitizer) SanitizeError(err error, hint string) string {
	if err == nil {
		if hint != "" {
			return hint
		}
		return "unknown error"
	}
	return s.Sanitize(err.Error(), hint)
}

var std = New()

// Message sanitizes raw with the default rules.
func Message(raw, hint string) string {
	return std.Sanitize(raw, hint)
}

// Error sanitizes err with the default rules.
func Error(err error, hint string) string {
	return std.SanitizeError(err, hint)
}
