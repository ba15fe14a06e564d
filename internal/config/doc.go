// Package config loads, defaults, normalizes, and validates the TOML
// configuration for the ytpub daemon and CLI.
//
// Load applies defaults first, then overlays the config file when present,
// expands every path field, and validates the result. Use CreateSample to
// write the annotated starter file.
package config
