// Package config loads schemaprobe settings.
//
// Values come from Default, then the YAML file named by
// SCHEMAPROBE_CONFIG, then SCHEMAPROBE_* environment variables:
//
//	SCHEMAPROBE_ENDPOINT=remote:localhost:5432
//	SCHEMAPROBE_DRIVER=postgres
//	SCHEMAPROBE_SCENARIOS=before-workaround,after-workaround
//	SCHEMAPROBE_PRESET=small
//	SCHEMAPROBE_CHECK_PERIOD=3s
//	SCHEMAPROBE_LOG_VERBOSITY=1
//
// Durations accept Go duration strings or integer milliseconds.
package config
