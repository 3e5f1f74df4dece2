// Package config loads, normalizes, and validates keylight configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// KEYLIGHT_FFMPEG. The Config type centralizes every knob the render engine
// and CLI need, so scratch directories, encoder settings, and chroma-key
// defaults are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
