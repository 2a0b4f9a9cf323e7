// Package output derives the on-disk location of query results from the
// configured match rules.
package output

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DirName builds the results directory name: a filesystem-safe rendering
// of the domain rule, the IP rule, and the first day filter. Multiple or
// zero rules collapse to fixed placeholders.
func DirName(domains, ips []string, day string) string {
	return fmt.Sprintf("%s_%s_%s_results", domainPart(domains), ipPart(ips), day)
}

// FilePath returns the full path of the result file for one task kind
// under the given base directory.
func FilePath(baseDir string, domains, ips []string, day, task string) string {
	file := fmt.Sprintf("matched_%s_logs.txt", task)
	return filepath.Join(baseDir, DirName(domains, ips, day), file)
}

func domainPart(domains []string) string {
	rules := nonBlank(domains)
	switch len(rules) {
	case 0:
		return "all_domains"
	case 1:
		// '*' is not portable in directory names.
		return strings.ReplaceAll(rules[0], "*", "wildcard")
	default:
		return "multi_domains"
	}
}

func ipPart(ips []string) string {
	rules := nonBlank(ips)
	switch len(rules) {
	case 0:
		return "all_ips"
	case 1:
		// CIDR notation contains '/'.
		return strings.ReplaceAll(rules[0], "/", "_")
	default:
		return "multi_ips"
	}
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
