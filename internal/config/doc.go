// Package config loads the dashboard configuration.
//
// Values are layered, lowest precedence first:
//
//	1. Default()
//	2. a YAML file (config.yaml, configs/config.yaml, or PRODTRACK_CONFIG_FILE)
//	3. environment variables prefixed with PRODTRACK_
//
// Nested sections map to underscore-joined variable names:
//
//	PRODTRACK_SOURCE_URL=https://docs.google.com/.../pub?output=csv
//	PRODTRACK_COLUMNS_FILTER="ORDEN DE COMPRA"
//	PRODTRACK_CACHE_TTL=10s
//	PRODTRACK_REFRESH_INTERVAL=30s
//
// Column names are compared after trimming and upper-casing, so the values
// here may be written in any case.
package config
