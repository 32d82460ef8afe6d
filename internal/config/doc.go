// Package config loads evented configuration.
//
// Settings are layered: built-in defaults, then a TOML or YAML file chosen by
// extension, then EVENTED_* environment variables. The result is validated
// before use.
//
// native_listeners defaults to true. A configuration that sets a positive
// engine_version without native_listeners describes a legacy host, so
// engine_version alone is enough; setting both to true and a version is a
// validation error.
//
//	[environment]
//	native_listeners = false
//	engine_version = 5.6
//	allow_leaks = false
//
//	[logging]
//	level = 1
//	format = "json"
//
//	[watch]
//	paths = ["./src"]
//	topic_prefix = "fs"
//	ignore = ["**/.git/**"]
package config
