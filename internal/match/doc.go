// Package match implements the IP and domain rule matchers applied to
// every candidate log line.
//
// A matcher is an ordered, OR-combined set of rules built once at startup
// and shared read-only across all workers. Matching operates directly on
// the raw field bytes and never allocates on the hot path; an empty rule
// set is a wildcard that matches everything.
package match
