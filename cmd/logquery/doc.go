// Command logquery scans archived gzip traffic logs for records whose
// source IP and domain satisfy the configured match rules, writing every
// match to a consolidated result file per task.
//
// Usage:
//
//	logquery -config config.yaml [-log-level debug] [-dev]
package main
