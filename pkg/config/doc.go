// Package config provides configuration management for hepconv.
//
// # Sources
//
// Settings are layered, later sources winning:
//
//  1. Built-in defaults (NewConfig)
//  2. An optional YAML file, named by the HEPCONV_CONFIG environment variable
//  3. Environment overrides with the HEPCONV_ prefix, dots replaced by
//     underscores (HEPCONV_CONVERT_SCHEMA_MODE=legacy)
//
// # Environment Variable Substitution
//
// The YAML file may reference the environment with ${VAR_NAME}:
//
//	# hepconv.yaml
//	log:
//	  level: ${HEPCONV_LOG_LEVEL}
//	convert:
//	  row_capacity: 0
//	  schema_mode: legacy
//
// # Configuration Structure
//
//	log:
//	  level: info            # debug, info, warn, error
//	  encoding: console      # console or json
//	convert:
//	  row_capacity: 8556118  # row-binary dataset size, 0 = unbounded
//	  batch_size: 1024
//	  schema_mode: strict    # strict or legacy
//	  compression: "null"    # null, deflate, snappy
//	  progress_every: 100000
//	scan:
//	  batch_size: 1024
//	  progress_every: 100000
//	tracing:
//	  enabled: false
//	  service_name: hepconv
package config
