// Package config handles configuration loading for the message store daemon.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion, layered over Default(). Nothing is required: an absent file or
// an empty one yields a fully working configuration.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	metrics:
//	  addr: "${THREADLOAF_METRICS_ADDR}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	cache:
//	  message_ttl: "24h"
//	  dedupe_window: "30m"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Retention and dedupe sizing:
//
//	cache:
//	  message_ttl: "24h"      # how long messages live
//	  dedupe_window: "24h"    # redelivery suppression horizon, defaults to the TTL
//	  dedupe_capacity: 4096   # max remembered delivery keys
//
// Background sweep:
//
//	sweep:
//	  enabled: true
//	  interval: "1m"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Metrics:
//
//	metrics:
//	  enabled: false
//	  addr: "127.0.0.1:9181"
//
// # Usage
//
// Load configuration from a specific path:
//
//	cfg, err := config.Load("/etc/threadloaf/store.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Or start from defaults when no file is given:
//
//	cfg := config.Default()
package config
