package scan

import (
	"bytes"

	"github.com/oplogtools/logquery/internal/match"
)

// NthField returns the n-th (zero-based) sep-delimited field of line as a
// sub-slice of line, without copying. ok is false when line has fewer
// than n separators.
func NthField(line []byte, sep byte, n int) (field []byte, ok bool) {
	rest := line
	for ; n > 0; n-- {
		i := bytes.IndexByte(rest, sep)
		if i < 0 {
			return nil, false
		}
		rest = rest[i+1:]
	}
	if i := bytes.IndexByte(rest, sep); i >= 0 {
		rest = rest[:i]
	}
	return rest, true
}

// Filter combines the IP and domain matchers applied to every record. IP
// and domain checks are ANDed; rules within each matcher are ORed. Shared
// read-only across workers.
type Filter struct {
	ips     *match.IPMatcher
	domains *match.DomainMatcher
}

// NewFilter builds a filter from constructed matchers.
func NewFilter(ips *match.IPMatcher, domains *match.DomainMatcher) *Filter {
	return &Filter{ips: ips, domains: domains}
}

// Match reports whether line satisfies both matchers under the given
// schema. The line is scanned once; evaluation stops at the first failing
// matcher or once both required fields have been checked. A line missing
// a required field never matches.
func (f *Filter) Match(line []byte, schema Schema) bool {
	needIP := !f.ips.Empty()
	needDomain := !f.domains.Empty()
	if !needIP && !needDomain {
		return true
	}

	rest := line
	for field := 0; ; field++ {
		end := bytes.IndexByte(rest, Separator)
		value := rest
		if end >= 0 {
			value = rest[:end]
		}

		if field == schema.IPField && needIP {
			if !f.ips.Matches(value) {
				return false
			}
			needIP = false
		}
		if field == schema.DomainField && needDomain {
			if !f.domains.Matches(value) {
				return false
			}
			needDomain = false
		}
		if !needIP && !needDomain {
			return true
		}
		if end < 0 {
			// Line ended before a required field.
			return false
		}
		rest = rest[end+1:]
	}
}
