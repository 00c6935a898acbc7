// Package config loads, normalizes, and validates the TOML configuration for
// mediastore.
//
// Load resolves the config file location, applies repository defaults for any
// missing values, expands ~ in every path field, and rejects configurations
// the pipeline cannot run with. Downstream packages receive a *Config whose
// path fields are absolute and whose numeric limits are already bounds-checked.
package config
