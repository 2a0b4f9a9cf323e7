// Package scan decodes gzip-compressed, pipe-delimited log streams and
// evaluates the configured IP and domain matchers against each record.
//
// Field extraction borrows sub-slices of the line and never copies; a
// line is checked in a single forward pass that locates both required
// fields and short-circuits as soon as the outcome is known.
package scan
