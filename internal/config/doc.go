// ABOUTME: Configuration package for the cinesnap CLI
// ABOUTME: Documents the override order for settings
// Package config loads cinesnap configuration from defaults, an optional YAML
// file and CINESNAP_* environment variables, and validates the result.
package config
