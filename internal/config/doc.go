// Package config loads the publisher's YAML configuration.
//
// Load reads .env files, expands ${VAR} references, applies defaults and
// validates the result. The returned *Config is built once at process start
// and handed to every component's constructor; no package reads
// configuration from global state.
package config
