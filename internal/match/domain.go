package match

import (
	"bytes"
	"strings"
)

// domainRule is one parsed domain expression: an exact byte literal or a
// wildcard suffix. Domain parsing is permissive and never fails; anything
// not shaped like "*.suffix" is taken as an exact literal.
type domainRule struct {
	pattern  []byte
	wildcard bool
}

func parseDomainRule(input string) domainRule {
	if rest, ok := strings.CutPrefix(input, "*."); ok {
		return domainRule{pattern: []byte(rest), wildcard: true}
	}
	return domainRule{pattern: []byte(input)}
}

func (r *domainRule) matches(domain []byte) bool {
	if !r.wildcard {
		return bytes.Equal(domain, r.pattern)
	}
	// Wildcard requires at least one label before the suffix: the match
	// boundary must be a '.' (a bare suffix does not match).
	if len(domain) <= len(r.pattern) || !bytes.HasSuffix(domain, r.pattern) {
		return false
	}
	return domain[len(domain)-len(r.pattern)-1] == '.'
}

// DomainMatcher answers membership queries for a set of domain rules.
// Immutable after construction and safe for unsynchronized concurrent use.
type DomainMatcher struct {
	rules []domainRule
}

// NewDomainMatcher builds a matcher from the given expressions, skipping
// blank entries. A leading "*." marks a wildcard suffix; everything else
// is an exact, case-sensitive literal.
func NewDomainMatcher(exprs []string) *DomainMatcher {
	m := &DomainMatcher{}
	for _, expr := range exprs {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		m.rules = append(m.rules, parseDomainRule(expr))
	}
	return m
}

// Empty reports whether no rules are configured (wildcard matcher).
func (m *DomainMatcher) Empty() bool {
	return len(m.rules) == 0
}

// Matches reports whether domain satisfies any configured rule. An empty
// matcher matches every candidate.
func (m *DomainMatcher) Matches(domain []byte) bool {
	if len(m.rules) == 0 {
		return true
	}
	for i := range m.rules {
		if m.rules[i].matches(domain) {
			return true
		}
	}
	return false
}
