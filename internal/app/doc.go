// Package app wires configuration, matchers, discovery, and the pipeline
// into the two sequential query tasks: aggregated logs always, native
// logs when enabled. Tasks are isolated; a fatal error in one does not
// prevent the other from running.
package app
