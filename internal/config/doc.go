// Package config loads and validates the query configuration.
//
// Configuration is read from a YAML file whose keys mirror the operational
// config shipped with the log archive tooling (logDirectory, sourceIPs,
// queryDomains, queryTime_day, ...). Environment variables prefixed with
// LOGQUERY_ override individual file values for deployment flexibility.
//
// Example Usage:
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil { ... }
//	fmt.Println(cfg.LogDirectory)
package config
