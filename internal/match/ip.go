package match

import (
	"bytes"
	"fmt"
	"net/netip"
	"strings"
)

// ParseError reports an IP rule expression that could not be parsed.
type ParseError struct {
	Rule   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid IP rule %q: %s", e.Rule, e.Reason)
}

type ipRuleKind uint8

const (
	ipExact ipRuleKind = iota
	ipPrefix
	ipCIDR
	ipRange
)

// ipRule is one parsed IP match expression. Exact and prefix rules compare
// raw bytes; CIDR and range rules require the candidate to parse as an
// address.
type ipRule struct {
	kind    ipRuleKind
	literal []byte // exact bytes or dotted-decimal prefix
	net     netip.Prefix
	lo, hi  netip.Addr
}

func parseIPRule(input string) (ipRule, error) {
	if strings.ContainsRune(input, '/') {
		if p, err := netip.ParsePrefix(input); err == nil {
			return cidrRule(p), nil
		}
		// Not a valid CIDR; fall through and treat as a literal.
	}

	if strings.ContainsRune(input, '-') {
		parts := strings.SplitN(input, "-", 2)
		lo, err := netip.ParseAddr(strings.TrimSpace(parts[0]))
		if err != nil {
			return ipRule{}, &ParseError{Rule: input, Reason: "range start is not an address"}
		}
		hi, err := netip.ParseAddr(strings.TrimSpace(parts[1]))
		if err != nil {
			return ipRule{}, &ParseError{Rule: input, Reason: "range end is not an address"}
		}
		return ipRule{kind: ipRange, lo: lo, hi: hi}, nil
	}

	return ipRule{kind: ipExact, literal: []byte(input)}, nil
}

// cidrRule reduces IPv4 networks with /8, /16 or /24 masks to a literal
// dotted-decimal prefix so matching never needs to parse the candidate.
// Only correct for canonical addresses without leading zeros, which is an
// assumed property of the log format.
func cidrRule(p netip.Prefix) ipRule {
	p = p.Masked()
	if p.Addr().Is4() {
		o := p.Addr().As4()
		switch p.Bits() {
		case 8:
			return ipRule{kind: ipPrefix, literal: fmt.Appendf(nil, "%d.", o[0])}
		case 16:
			return ipRule{kind: ipPrefix, literal: fmt.Appendf(nil, "%d.%d.", o[0], o[1])}
		case 24:
			return ipRule{kind: ipPrefix, literal: fmt.Appendf(nil, "%d.%d.%d.", o[0], o[1], o[2])}
		}
	}
	return ipRule{kind: ipCIDR, net: p}
}

func (r *ipRule) matches(candidate []byte, addr netip.Addr, addrOK bool) bool {
	switch r.kind {
	case ipExact:
		return bytes.Equal(candidate, r.literal)
	case ipPrefix:
		return bytes.HasPrefix(candidate, r.literal)
	case ipCIDR:
		return addrOK && r.net.Contains(addr)
	default:
		return addrOK && addr.Compare(r.lo) >= 0 && addr.Compare(r.hi) <= 0
	}
}

// needsAddr reports whether the rule operates on a parsed address rather
// than raw bytes.
func (r *ipRule) needsAddr() bool {
	return r.kind == ipCIDR || r.kind == ipRange
}

// IPMatcher answers containment queries for a set of IP rules. Immutable
// after construction and safe for unsynchronized concurrent use.
type IPMatcher struct {
	rules   []ipRule
	anyAddr bool // at least one rule needs a parsed address
}

// NewIPMatcher parses the given expressions into a matcher. Blank entries
// are skipped. Returns a *ParseError for an expression that is neither a
// valid CIDR, a valid range, nor usable as a literal.
func NewIPMatcher(exprs []string) (*IPMatcher, error) {
	m := &IPMatcher{}
	for _, expr := range exprs {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		rule, err := parseIPRule(expr)
		if err != nil {
			return nil, err
		}
		if rule.needsAddr() {
			m.anyAddr = true
		}
		m.rules = append(m.rules, rule)
	}
	return m, nil
}

// Empty reports whether no rules are configured (wildcard matcher).
func (m *IPMatcher) Empty() bool {
	return len(m.rules) == 0
}

// Matches reports whether candidate satisfies any configured rule. An
// empty matcher matches every candidate. The candidate is parsed as an
// address at most once, and only when a CIDR or range rule is present.
func (m *IPMatcher) Matches(candidate []byte) bool {
	if len(m.rules) == 0 {
		return true
	}
	var addr netip.Addr
	addrOK := false
	if m.anyAddr {
		addr, addrOK = parseAddr(candidate)
	}
	for i := range m.rules {
		if m.rules[i].matches(candidate, addr, addrOK) {
			return true
		}
	}
	return false
}

// parseAddr parses a candidate field as an IP address. The inline IPv4
// path avoids allocation; anything it cannot handle (IPv6, malformed
// input) goes through the generic parser.
func parseAddr(b []byte) (netip.Addr, bool) {
	if a, ok := parseIPv4(b); ok {
		return a, true
	}
	a, err := netip.ParseAddr(string(b))
	if err != nil {
		return netip.Addr{}, false
	}
	return a, true
}

// parseIPv4 parses canonical dotted-decimal IPv4 from raw bytes. Rejects
// empty octets, more than three digits, values above 255, leading zeros,
// and anything other than exactly four octets.
func parseIPv4(b []byte) (netip.Addr, bool) {
	var octets [4]byte
	oct, val, digits := 0, 0, 0
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9':
			if digits > 0 && val == 0 {
				return netip.Addr{}, false // leading zero
			}
			digits++
			if digits > 3 {
				return netip.Addr{}, false
			}
			val = val*10 + int(c-'0')
			if val > 255 {
				return netip.Addr{}, false
			}
		case c == '.':
			if digits == 0 || oct == 3 {
				return netip.Addr{}, false
			}
			octets[oct] = byte(val)
			oct++
			val, digits = 0, 0
		default:
			return netip.Addr{}, false
		}
	}
	if digits == 0 || oct != 3 {
		return netip.Addr{}, false
	}
	octets[3] = byte(val)
	return netip.AddrFrom4(octets), true
}
