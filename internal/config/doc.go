// Package config loads, normalizes, and validates funbatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STASH_API_KEY. Always obtain settings through this package so downstream
// code receives sanitized paths and clear validation errors.
package config
