// Package config loads, normalizes, and validates Fingersatz configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OUTPUT_S3_BUCKET and FINGERSATZ_ACCESS_KEY. The Config type centralizes
// every knob the daemon and CLI need, allowing staging directories, engine
// settings, and object-store credentials to be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
// Nothing outside this package reads the process environment.
package config
