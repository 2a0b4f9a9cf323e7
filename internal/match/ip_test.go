package match

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPMatcherExact(t *testing.T) {
	m, err := NewIPMatcher([]string{"10.0.0.1"})
	require.NoError(t, err)

	assert.True(t, m.Matches([]byte("10.0.0.1")))
	assert.False(t, m.Matches([]byte("10.0.0.2")))
	// Exact rules compare bytes with no normalization.
	assert.False(t, m.Matches([]byte("010.0.0.1")))
}

func TestIPMatcherCIDRPrefixReduction(t *testing.T) {
	tests := []struct {
		name    string
		rule    string
		match   []string
		noMatch []string
	}{
		{
			name:    "slash 24",
			rule:    "10.1.2.0/24",
			match:   []string{"10.1.2.0", "10.1.2.3", "10.1.2.255"},
			noMatch: []string{"10.1.3.3", "110.1.2.3", "10.1.20.3"},
		},
		{
			name:    "slash 16",
			rule:    "192.168.0.0/16",
			match:   []string{"192.168.0.1", "192.168.255.255"},
			noMatch: []string{"192.169.0.1", "1192.168.0.1"},
		},
		{
			name:    "slash 8",
			rule:    "10.0.0.0/8",
			match:   []string{"10.0.0.1", "10.255.255.255"},
			noMatch: []string{"11.0.0.1", "110.0.0.1"},
		},
		{
			name:    "non-aligned host bits are masked",
			rule:    "10.1.2.9/24",
			match:   []string{"10.1.2.200"},
			noMatch: []string{"10.1.3.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewIPMatcher([]string{tt.rule})
			require.NoError(t, err)
			for _, c := range tt.match {
				assert.True(t, m.Matches([]byte(c)), c)
			}
			for _, c := range tt.noMatch {
				assert.False(t, m.Matches([]byte(c)), c)
			}
		})
	}
}

// The /8, /16, /24 fast path must agree with general CIDR containment for
// canonical dotted-decimal candidates.
func TestIPMatcherPrefixEquivalence(t *testing.T) {
	candidates := []string{
		"10.1.2.0", "10.1.2.255", "10.1.3.0", "10.2.2.3",
		"9.255.255.255", "11.0.0.0", "172.16.5.1",
	}
	for _, rule := range []string{"10.1.2.0/24", "10.1.0.0/16", "10.0.0.0/8"} {
		fast, err := NewIPMatcher([]string{rule})
		require.NoError(t, err)
		require.Equal(t, ipPrefix, fast.rules[0].kind)

		general := &IPMatcher{rules: []ipRule{mustGeneralCIDR(t, rule)}, anyAddr: true}
		for _, c := range candidates {
			assert.Equal(t, general.Matches([]byte(c)), fast.Matches([]byte(c)),
				"rule %s candidate %s", rule, c)
		}
	}
}

func mustGeneralCIDR(t *testing.T, rule string) ipRule {
	t.Helper()
	p, err := netip.ParsePrefix(rule)
	require.NoError(t, err)
	return ipRule{kind: ipCIDR, net: p.Masked()}
}

func TestIPMatcherGeneralCIDR(t *testing.T) {
	m, err := NewIPMatcher([]string{"10.0.0.0/12"})
	require.NoError(t, err)

	assert.True(t, m.Matches([]byte("10.15.255.255")))
	assert.False(t, m.Matches([]byte("10.16.0.0")))
	assert.False(t, m.Matches([]byte("not-an-ip")))
}

func TestIPMatcherRange(t *testing.T) {
	m, err := NewIPMatcher([]string{"10.0.0.5 - 10.0.0.9"})
	require.NoError(t, err)

	assert.False(t, m.Matches([]byte("10.0.0.4")))
	assert.True(t, m.Matches([]byte("10.0.0.5")))
	assert.True(t, m.Matches([]byte("10.0.0.7")))
	assert.True(t, m.Matches([]byte("10.0.0.9")))
	assert.False(t, m.Matches([]byte("10.0.0.10")))
}

func TestIPMatcherEmptyIsWildcard(t *testing.T) {
	m, err := NewIPMatcher(nil)
	require.NoError(t, err)
	assert.True(t, m.Empty())
	assert.True(t, m.Matches([]byte("10.0.0.1")))
	assert.True(t, m.Matches([]byte("garbage")))

	m, err = NewIPMatcher([]string{"", "  "})
	require.NoError(t, err)
	assert.True(t, m.Empty())
}

func TestIPMatcherMultipleRulesOR(t *testing.T) {
	m, err := NewIPMatcher([]string{"10.1.2.0/24", "192.168.1.1"})
	require.NoError(t, err)

	assert.True(t, m.Matches([]byte("10.1.2.3")))
	assert.True(t, m.Matches([]byte("192.168.1.1")))
	assert.False(t, m.Matches([]byte("172.16.0.1")))
}

func TestIPMatcherInvalidRange(t *testing.T) {
	for _, rule := range []string{"10.0.0.1-bogus", "bogus-10.0.0.1"} {
		_, err := NewIPMatcher([]string{rule})
		require.Error(t, err, rule)
		var perr *ParseError
		assert.ErrorAs(t, err, &perr)
	}
}

func TestIPMatcherMalformedCIDRFallsBackToLiteral(t *testing.T) {
	// A '/' string that is not valid CIDR is kept as an exact literal.
	m, err := NewIPMatcher([]string{"10.0.0.1/banana"})
	require.NoError(t, err)
	assert.True(t, m.Matches([]byte("10.0.0.1/banana")))
	assert.False(t, m.Matches([]byte("10.0.0.1")))
}

func TestIPMatcherIPv6(t *testing.T) {
	m, err := NewIPMatcher([]string{"2001:db8::/32"})
	require.NoError(t, err)
	assert.True(t, m.Matches([]byte("2001:db8::1")))
	assert.False(t, m.Matches([]byte("2001:db9::1")))
}

func TestParseIPv4(t *testing.T) {
	valid := []string{"0.0.0.0", "10.1.2.3", "255.255.255.255"}
	for _, s := range valid {
		_, ok := parseIPv4([]byte(s))
		assert.True(t, ok, s)
	}

	invalid := []string{
		"", "10.1.2", "10.1.2.3.4", "10..2.3", "10.1.2.", ".1.2.3",
		"256.1.2.3", "10.1.2.1234", "010.1.2.3", "10.1.2.3x", "a.b.c.d",
		"2001:db8::1",
	}
	for _, s := range invalid {
		_, ok := parseIPv4([]byte(s))
		assert.False(t, ok, s)
	}
}
