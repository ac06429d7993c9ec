// Package pattern implements the pattern-matching contract of §6. The
// spec allows any PCRE-compatible engine; no PCRE binding is available
// anywhere in this module's reference corpus, so this package is built
// on the standard library's RE2-based regexp package. Pattern is a
// concrete struct wrapping a *regexp.Regexp, not an interface, so no
// other engine can be substituted without changing this package. The
// divergence (no backreferences, no lookaround) is documented here
// rather than hidden.
package pattern

import (
	"fmt"
	"regexp"
)

// Pattern is an opaque, compiled matcher. Source is preserved verbatim
// so that a Pattern's byte-identical source survives a round trip
// through bytecode-cache serialization, per §6.
type Pattern struct {
	Source   string
	compiled *regexp.Regexp
}

// Compile parses source as a regular expression and returns a Pattern
// wrapping it. The source text itself is never mutated or normalized.
func Compile(source string) (*Pattern, error) {
	re, err := regexp.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("pattern: %w", err)
	}
	return &Pattern{Source: source, compiled: re}, nil
}

// Match returns the first match's capture groups (index 0 is the whole
// match), or (nil, false) if subject does not match at all.
func (p *Pattern) Match(subject string) ([]string, bool) {
	m := p.compiled.FindStringSubmatch(subject)
	if m == nil {
		return nil, false
	}
	return m, true
}

// MatchAll returns every non-overlapping match's capture groups, or
// (nil, false) if there were none.
func (p *Pattern) MatchAll(subject string) ([][]string, bool) {
	all := p.compiled.FindAllStringSubmatch(subject, -1)
	if len(all) == 0 {
		return nil, false
	}
	return all, true
}
