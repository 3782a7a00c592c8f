// Package config handles configuration loading for credo-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	health:
//	  provider: "${CREDO_KMS_PROVIDER}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	broadcast:
//	  price_interval: "5s"
//	  health_interval: "15s"
//	  alert_interval: "45s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8484"   # API, stream, and metrics
//
// Broadcast tuning:
//
//	broadcast:
//	  price_interval: "5s"
//	  health_interval: "15s"
//	  alert_interval: "45s"
//	  alert_probability: 0.3
//	  snapshot_limit: 20
//
// Alert store:
//
//	alerts:
//	  capacity: 100
//
// Key rotation simulation:
//
//	health:
//	  provider: "sim-kms"
//	  keys: ["signing-key-1", "signing-key-2"]
//	  rotation_delay: "3s"
//	  rotation_schedule: "0 3 * * *"   # cron spec, empty disables
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load configuration from a path, or start from defaults:
//
//	cfg, err := config.Load("/etc/credo/gateway.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := config.Default()
package config
